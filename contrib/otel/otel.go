// Package otel adapts Lumen telemetry events to OpenTelemetry spans.
//
// Hook implements core.TelemetryHook and records one client span per
// request, started on OnRequestStart and ended on OnRequestEnd. The
// two events are correlated by their RequestID.
//
//	hook := otel.NewHook()
//	client := core.NewClient(provider, core.WithTelemetry(hook))
//
// Span timestamps come from the events themselves, so the recorded
// duration matches what the SDK measured. The telemetry interface does
// not thread a context through, so spans are recorded as roots under
// the configured tracer provider.
//
// Like the events it consumes, the hook never sees prompts, responses,
// or API keys. Span attributes carry only operational metadata:
// provider, operation, model, request ID, and token usage.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumenlabs/lumen/core"
)

// tracerName identifies this instrumentation library to the tracer
// provider.
const tracerName = "github.com/lumenlabs/lumen/contrib/otel"

// Span attribute keys, following the OpenTelemetry GenAI semantic
// conventions where they exist.
const (
	attrSystem       = attribute.Key("gen_ai.system")
	attrOperation    = attribute.Key("gen_ai.operation.name")
	attrRequestModel = attribute.Key("gen_ai.request.model")
	attrInputTokens  = attribute.Key("gen_ai.usage.input_tokens")
	attrOutputTokens = attribute.Key("gen_ai.usage.output_tokens")
	attrTotalTokens  = attribute.Key("lumen.usage.total_tokens")
	attrRequestID    = attribute.Key("lumen.request_id")
)

// Hook records one OpenTelemetry span per Lumen request.
// Hook is safe for concurrent use.
type Hook struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// Option configures a Hook.
type Option func(*config)

type config struct {
	provider trace.TracerProvider
}

// WithTracerProvider sets the tracer provider spans are created from.
// The global provider is used when this option is absent.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.provider = tp
		}
	}
}

// NewHook creates a Hook.
func NewHook(opts ...Option) *Hook {
	cfg := config{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Hook{
		tracer: cfg.provider.Tracer(tracerName),
		spans:  make(map[string]trace.Span),
	}
}

// OnRequestStart opens a span named "<provider>.<op>" for the request.
func (h *Hook) OnRequestStart(e core.RequestStartEvent) {
	_, span := h.tracer.Start(context.Background(), e.Provider+"."+e.Op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			attrSystem.String(e.Provider),
			attrOperation.String(e.Op),
			attrRequestModel.String(string(e.Model)),
			attrRequestID.String(e.RequestID),
		),
	)

	h.mu.Lock()
	h.spans[e.RequestID] = span
	h.mu.Unlock()
}

// OnRequestEnd closes the span opened by the matching start event,
// recording usage and the terminal error. End events with no matching
// start are dropped.
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	h.mu.Lock()
	span, ok := h.spans[e.RequestID]
	delete(h.spans, e.RequestID)
	h.mu.Unlock()
	if !ok {
		return
	}

	if e.Usage != nil {
		span.SetAttributes(
			attrInputTokens.Int(e.Usage.PromptTokenCount),
			attrOutputTokens.Int(e.Usage.CandidatesTokenCount),
			attrTotalTokens.Int(e.Usage.TotalTokenCount),
		)
	}

	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(e.End))
}

// Compile-time check that Hook implements core.TelemetryHook.
var _ core.TelemetryHook = (*Hook)(nil)
