package observability

import "context"

// Logger is the structured logger accepted by every package. Libraries
// default to NopLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type field struct {
	key string
	val interface{}
}

func (f field) Key() string        { return f.key }
func (f field) Value() interface{} { return f.val }

func String(key, value string) Field        { return field{key, value} }
func Int(key string, value int) Field       { return field{key, value} }
func Int64(key string, value int64) Field   { return field{key, value} }
func Float(key string, value float64) Field { return field{key, value} }
func Bool(key string, value bool) Field     { return field{key, value} }
func Error(key string, err error) Field     { return field{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Tracer provides tracing hooks around long operations such as a bake.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Span and tag names emitted by the bake pipeline.
const (
	SpanBake        = "markup.bake"
	SpanSerialize   = "markup.serialize"
	SpanTOCEmbed    = "markup.toc.embed"
	TagPageCount    = "markup.pages.count"
	TagSkippedCount = "markup.skipped.count"
	TagOutputBytes  = "markup.output.bytes"
)
