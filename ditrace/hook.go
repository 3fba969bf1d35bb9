// Package ditrace records service construction as OpenTelemetry spans.
//
// Each construction becomes a span named "di.construct <token>". Spans for dependencies are
// children of the span of the service that resolved them.
package ditrace

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sectrean/inject-kit"
)

const tracerName = "github.com/sectrean/inject-kit/ditrace"

// Span attribute keys.
const (
	AttrToken    = attribute.Key("di.token")
	AttrLifetime = attribute.Key("di.lifetime")
	AttrDepth    = attribute.Key("di.depth")
	AttrScopeID  = attribute.Key("di.scope_id")
)

// Hook is a [di.Hook] that starts a span for every construction.
type Hook struct {
	tracer trace.Tracer
}

var _ di.Hook = (*Hook)(nil)

// NewHook returns a [Hook] using a tracer from tp.
// If tp is nil the global tracer provider is used.
func NewHook(tp trace.TracerProvider) *Hook {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Hook{
		tracer: tp.Tracer(tracerName),
	}
}

func (h *Hook) BeforeConstruct(ctx context.Context, e di.Event) context.Context {
	attrs := []attribute.KeyValue{
		AttrToken.String(e.Token.Name()),
		AttrLifetime.String(e.Lifetime.String()),
		AttrDepth.Int(e.Depth()),
	}
	if e.ScopeID != uuid.Nil {
		attrs = append(attrs, AttrScopeID.String(e.ScopeID.String()))
	}

	ctx, _ = h.tracer.Start(ctx, "di.construct "+e.Token.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx
}

func (h *Hook) AfterConstruct(ctx context.Context, _ di.Event, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
