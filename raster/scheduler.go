package raster

import (
	"context"
	"fmt"
	"sync"

	"github.com/wudi/pdfmarkup/pdfdoc"
)

// Scheduler serializes renders per page. Starting a render cancels the
// in-flight render of the same page and waits for it to return before the
// new one touches the surface, so a stale render can never finish last.
type Scheduler struct {
	mu       sync.Mutex
	inflight map[int]*renderJob
}

type renderJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{inflight: make(map[int]*renderJob)}
}

// Render runs fn for page after cancelling and awaiting the previous render
// of that page. It returns context.Canceled when a newer render superseded
// this one before fn started.
func (s *Scheduler) Render(ctx context.Context, page int, fn func(ctx context.Context) error) error {
	jctx, cancel := context.WithCancel(ctx)
	job := &renderJob{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	prev := s.inflight[page]
	s.inflight[page] = job
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.inflight[page] == job {
			delete(s.inflight, page)
		}
		s.mu.Unlock()
		close(job.done)
	}()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}
	if err := jctx.Err(); err != nil {
		return err
	}
	return fn(jctx)
}

// Cancel aborts the in-flight render of page, if any, and waits for it.
func (s *Scheduler) Cancel(page int) {
	s.mu.Lock()
	job := s.inflight[page]
	s.mu.Unlock()
	if job != nil {
		job.cancel()
		<-job.done
	}
}

// PaintPage renders page of doc at scale and draws it onto s as the
// backdrop for annotations. Pages are 1-based.
func PaintPage(ctx context.Context, s *Surface, doc pdfdoc.Renderer, page int, scale float64) error {
	vp, err := doc.Viewport(page, scale)
	if err != nil {
		return fmt.Errorf("viewport page %d: %w", page, err)
	}
	img, err := doc.Render(ctx, page, scale)
	if err != nil {
		return fmt.Errorf("render page %d: %w", page, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Save()
	s.SetComposite(SourceOver)
	s.SetAlpha(1)
	s.DrawImage(img, 0, 0, vp.Width, vp.Height)
	s.Restore()
	return nil
}
