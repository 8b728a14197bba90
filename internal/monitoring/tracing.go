package monitoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the trace id between client, middleware and error responses.
const RequestIDHeader = "X-Request-ID"

type spanKey struct{}

// SpanStatus represents the status of a span
type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "ok"
	SpanStatusError SpanStatus = "error"
)

// Span is one timed operation inside a request trace.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Tags      map[string]string `json:"tags,omitempty"`
	Status    SpanStatus        `json:"status"`
	Error     string            `json:"error,omitempty"`
}

// SetTag sets a tag on the span.
func (s *Span) SetTag(key, value string) {
	if s == nil {
		return
	}
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

// Tracer logs request-scoped spans. It keeps no span state of its own.
type Tracer struct {
	serviceName string
	logger      *Logger
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, logger *Logger) *Tracer {
	return &Tracer{serviceName: serviceName, logger: logger}
}

// StartSpan opens a span under the span already in ctx, or starts a new trace.
func (t *Tracer) StartSpan(ctx context.Context, operation string) (*Span, context.Context) {
	span := &Span{
		SpanID:    newSpanID(),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanStatusOK,
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	} else {
		span.TraceID = newTraceID()
	}
	return span, context.WithValue(ctx, spanKey{}, span)
}

// EndSpan closes span and logs it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if t == nil || span == nil {
		return
	}
	span.Duration = time.Since(span.StartTime)
	if err != nil {
		span.Status = SpanStatusError
		span.Error = err.Error()
	}

	attrs := []any{
		"trace_id", span.TraceID,
		"span_id", span.SpanID,
		"service", t.serviceName,
		"operation", span.Operation,
		"status", span.Status,
		"duration_ms", span.Duration.Milliseconds(),
	}
	if span.ParentID != "" {
		attrs = append(attrs, "parent_id", span.ParentID)
	}
	if span.Error != "" {
		attrs = append(attrs, "error", span.Error)
	}
	for k, v := range span.Tags {
		attrs = append(attrs, "tag_"+k, v)
	}
	t.logger.Debug("Trace Span", attrs...)
}

// Trace runs fn inside a span named operation.
func (t *Tracer) Trace(ctx context.Context, operation string, fn func(context.Context) error) error {
	if t == nil {
		return fn(ctx)
	}
	span, spanCtx := t.StartSpan(ctx, operation)
	defer func() {
		if r := recover(); r != nil {
			span.SetTag("panic", "true")
			t.EndSpan(span, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	err := fn(spanCtx)
	t.EndSpan(span, err)
	return err
}

// SpanFromContext returns the active span, if any.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// TraceIDFromContext returns the trace id of the active span, or "".
func TraceIDFromContext(ctx context.Context) string {
	if span := SpanFromContext(ctx); span != nil {
		return span.TraceID
	}
	return ""
}

// TracingMiddleware opens a span per request. An incoming X-Request-ID becomes
// the trace id; otherwise one is generated and written back on the request so
// error responses can echo it.
func TracingMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		span, spanCtx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		if incoming := sanitizeRequestID(c.GetHeader(RequestIDHeader)); incoming != "" {
			span.TraceID = incoming
		}
		c.Request.Header.Set(RequestIDHeader, span.TraceID)
		c.Header(RequestIDHeader, span.TraceID)
		c.Request = c.Request.WithContext(spanCtx)

		c.Next()

		span.SetTag("http.status_code", fmt.Sprintf("%d", c.Writer.Status()))
		var spanErr error
		if len(c.Errors) > 0 {
			spanErr = fmt.Errorf("request errors: %v", c.Errors.Errors())
		}
		tracer.EndSpan(span, spanErr)
	}
}

func sanitizeRequestID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > 64 {
		return ""
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return ""
		}
	}
	return id
}

func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newSpanID() string {
	return newTraceID()[:16]
}
