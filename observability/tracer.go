package observability

import (
	"context"
	"sort"
	"sync"
	"time"
)

type spanKey struct{}

// NewLogTracer returns a tracer that logs each finished span with its
// duration and tags. Spans that recorded an error are logged at Warn,
// the rest at Debug.
func NewLogTracer(l Logger) Tracer {
	if l == nil {
		l = NopLogger{}
	}
	return &logTracer{logger: l, now: time.Now}
}

type logTracer struct {
	logger Logger
	now    func() time.Time
}

func (t *logTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	s := &logSpan{tracer: t, name: name, start: t.now(), tags: make(map[string]interface{})}
	if parent, ok := ctx.Value(spanKey{}).(*logSpan); ok {
		s.parent = parent.name
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

type logSpan struct {
	tracer *logTracer
	name   string
	parent string
	start  time.Time

	mu       sync.Mutex
	tags     map[string]interface{}
	err      error
	finished bool
}

func (s *logSpan) SetTag(key string, value interface{}) {
	s.mu.Lock()
	s.tags[key] = value
	s.mu.Unlock()
}

func (s *logSpan) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Finish logs the span once; later calls are ignored.
func (s *logSpan) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	fields := []Field{
		String("span", s.name),
		Float("duration_ms", float64(s.tracer.now().Sub(s.start))/float64(time.Millisecond)),
	}
	if s.parent != "" {
		fields = append(fields, String("parent", s.parent))
	}
	keys := make([]string, 0, len(s.tags))
	for k := range s.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, field{k, s.tags[k]})
	}
	err := s.err
	s.mu.Unlock()

	if err != nil {
		s.tracer.logger.Warn("span failed", append(fields, Error("error", err))...)
		return
	}
	s.tracer.logger.Debug("span finished", fields...)
}
