package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizzy-ai/quizzy/pkg/requestid"
)

// StructuredLogger is a thin facade over zap for tracing service operations.
// Typical usage:
//
//	tracer := log.NewDebugLogger("job_service").WithContext(ctx).Operation("create_pdf_job").Build()
//	...
//	tracer.Success().WithParam("job_id", id).Log()
type StructuredLogger struct {
	name   string
	fields []any
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name}
}

// WithContext attaches the request id carried by ctx, if any.
func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	if rid := requestid.FromContext(ctx); rid != "" {
		return &StructuredLogger{name: l.name, fields: append(cloneFields(l.fields), "request_id", rid)}
	}
	return l
}

func (l *StructuredLogger) Operation(op string) *OperationBuilder {
	return &OperationBuilder{
		name:   l.name,
		fields: append(cloneFields(l.fields), "operation", op),
	}
}

type OperationBuilder struct {
	name   string
	fields []any
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, key, value)
	return b
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	return b.WithParam(key, value)
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	return b.WithParam(key, value)
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	return b.WithParam(key, value)
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	return b.WithParam(key, value.String())
}

func (b *OperationBuilder) WithStringPtr(key string, value *string) *OperationBuilder {
	if value != nil {
		return b.WithParam(key, *value)
	}
	return b
}

func (b *OperationBuilder) Build() *OperationTracer {
	return &OperationTracer{
		logger: zap.S().Named(b.name),
		fields: b.fields,
		start:  time.Now(),
	}
}

// OperationTracer records steps and the final outcome of one operation.
type OperationTracer struct {
	logger *zap.SugaredLogger
	fields []any
	start  time.Time
}

func (t *OperationTracer) Step(name string) *Entry {
	return &Entry{
		logger: t.logger,
		level:  levelDebug,
		msg:    "step",
		fields: append(cloneFields(t.fields), "step", name),
	}
}

func (t *OperationTracer) Success() *Entry {
	return &Entry{
		logger: t.logger,
		level:  levelInfo,
		msg:    "operation succeeded",
		fields: append(cloneFields(t.fields), "duration", time.Since(t.start).String()),
	}
}

func (t *OperationTracer) Error(err error) *Entry {
	return &Entry{
		logger: t.logger,
		level:  levelError,
		msg:    "operation failed",
		fields: append(cloneFields(t.fields), "error", err, "duration", time.Since(t.start).String()),
	}
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

// Entry is a pending log line; Log emits it.
type Entry struct {
	logger *zap.SugaredLogger
	level  level
	msg    string
	fields []any
}

func (e *Entry) WithParam(key string, value any) *Entry {
	e.fields = append(e.fields, key, value)
	return e
}

func (e *Entry) WithString(key, value string) *Entry {
	return e.WithParam(key, value)
}

func (e *Entry) WithInt(key string, value int) *Entry {
	return e.WithParam(key, value)
}

func (e *Entry) Log() {
	switch e.level {
	case levelDebug:
		e.logger.Debugw(e.msg, e.fields...)
	case levelError:
		e.logger.Errorw(e.msg, e.fields...)
	default:
		e.logger.Infow(e.msg, e.fields...)
	}
}

func cloneFields(fields []any) []any {
	out := make([]any, len(fields))
	copy(out, fields)
	return out
}
