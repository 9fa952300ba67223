// Package approval implements a sequential sign-off workflow.
package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/wudi/pdfmarkup/annotation"
)

var (
	ErrUnknownStep    = errors.New("approval: unknown step")
	ErrNotPending     = errors.New("approval: step is not pending")
	ErrWorkflowClosed = errors.New("approval: workflow is closed")
	ErrOutOfOrder     = errors.New("approval: step is not the current step")
	ErrNoSteps        = errors.New("approval: workflow has no steps")
)

// StepStatus is the state of one step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// Status is the state of the whole workflow.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Step is one approver's decision. StepNumber is 1-based.
type Step struct {
	StepNumber   int                   `json:"stepNumber"`
	ApproverName string                `json:"approverName"`
	Required     bool                  `json:"required"`
	Status       StepStatus            `json:"status"`
	Signature    *annotation.Signature `json:"signature,omitempty"`
	ApprovedAt   *time.Time            `json:"approvedAt,omitempty"`
	Comment      string                `json:"comment,omitempty"`
}

// Workflow runs its steps in order. Steps decide one at a time starting
// from CurrentStep; a rejection halts the workflow.
type Workflow struct {
	ID          string `json:"id"`
	DocID       string `json:"docId"`
	Steps       []Step `json:"steps"`
	CurrentStep int    `json:"currentStep"`
	Status      Status `json:"status"`

	now func() time.Time
}

// Approver names one step of a new workflow.
type Approver struct {
	Name     string
	Required bool
}

// New starts a workflow over approvers in order.
func New(docID string, approvers ...Approver) (*Workflow, error) {
	if len(approvers) == 0 {
		return nil, ErrNoSteps
	}
	w := &Workflow{
		ID:          annotation.NewID(),
		DocID:       docID,
		Steps:       make([]Step, len(approvers)),
		CurrentStep: 1,
		Status:      StatusPending,
	}
	for i, a := range approvers {
		w.Steps[i] = Step{StepNumber: i + 1, ApproverName: a.Name, Required: a.Required, Status: StepPending}
	}
	return w, nil
}

// SetClock overrides the time source used for decision timestamps.
func (w *Workflow) SetClock(now func() time.Time) { w.now = now }

func (w *Workflow) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

func (w *Workflow) step(n int) (*Step, error) {
	if w.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowClosed, w.Status)
	}
	if n < 1 || n > len(w.Steps) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, n)
	}
	s := &w.Steps[n-1]
	if s.Status != StepPending {
		return nil, fmt.Errorf("%w: step %d is %s", ErrNotPending, n, s.Status)
	}
	if n != w.CurrentStep {
		return nil, fmt.Errorf("%w: step %d, current %d", ErrOutOfOrder, n, w.CurrentStep)
	}
	return s, nil
}

// Approve records an approval of step n and advances the workflow.
// Approving the last step completes it.
func (w *Workflow) Approve(n int, sig *annotation.Signature, comment string) error {
	s, err := w.step(n)
	if err != nil {
		return err
	}
	at := w.clock()
	s.Status = StepApproved
	s.Signature = sig
	s.ApprovedAt = &at
	s.Comment = comment
	if n == len(w.Steps) {
		w.Status = StatusCompleted
		return nil
	}
	w.CurrentStep = n + 1
	return nil
}

// Reject records a rejection of step n and closes the workflow. Later
// steps stay pending.
func (w *Workflow) Reject(n int, comment string) error {
	s, err := w.step(n)
	if err != nil {
		return err
	}
	at := w.clock()
	s.Status = StepRejected
	s.ApprovedAt = &at
	s.Comment = comment
	w.Status = StatusRejected
	return nil
}

// Pending returns the step awaiting a decision, or nil once the workflow
// is closed.
func (w *Workflow) Pending() *Step {
	if w.Status != StatusPending {
		return nil
	}
	return &w.Steps[w.CurrentStep-1]
}
