package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"git.home.luguber.info/inful/docportal/internal/logfields"
)

type logContext struct {
	BuildID string
	Stage   string
}

type logContextKeyType struct{}

var logContextKey logContextKeyType

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// BuildIDFrom returns the build ID carried by ctx.
func BuildIDFrom(ctx context.Context) string {
	return extractLogContext(ctx).BuildID
}

func extractLogContext(ctx context.Context) logContext {
	if lc, ok := ctx.Value(logContextKey).(logContext); ok {
		return lc
	}
	return logContext{}
}

// ContextHandler decorates records logged with a context with the build ID, stage
// and trace ID carried by that context.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: next}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		lc := extractLogContext(ctx)
		if lc.BuildID != "" {
			r.AddAttrs(logfields.BuildID(lc.BuildID))
		}
		if lc.Stage != "" {
			r.AddAttrs(logfields.Stage(lc.Stage))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
