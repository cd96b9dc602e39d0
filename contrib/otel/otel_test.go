package otel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumenlabs/lumen/core"
)

func newTestHook() (*Hook, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewHook(WithTracerProvider(provider)), recorder
}

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestHookRecordsSpan(t *testing.T) {
	hook, recorder := newTestHook()

	start := time.Now().Add(-500 * time.Millisecond)
	end := time.Now()

	hook.OnRequestStart(core.RequestStartEvent{
		RequestID: "req-1",
		Provider:  "gemini",
		Op:        "generate",
		Model:     "gemini-pro",
		Start:     start,
	})
	hook.OnRequestEnd(core.RequestEndEvent{
		RequestID: "req-1",
		Provider:  "gemini",
		Op:        "generate",
		Model:     "gemini-pro",
		Start:     start,
		End:       end,
		Usage: &core.UsageMetadata{
			PromptTokenCount:     3,
			CandidatesTokenCount: 7,
			TotalTokenCount:      10,
		},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]

	if span.Name() != "gemini.generate" {
		t.Errorf("span name = %q, want %q", span.Name(), "gemini.generate")
	}
	if span.SpanKind() != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", span.SpanKind())
	}
	if !span.StartTime().Equal(start) {
		t.Errorf("span start = %v, want %v", span.StartTime(), start)
	}
	if !span.EndTime().Equal(end) {
		t.Errorf("span end = %v, want %v", span.EndTime(), end)
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", span.Status().Code)
	}

	attrs := attrMap(span.Attributes())
	if got := attrs[attrSystem].AsString(); got != "gemini" {
		t.Errorf("%s = %q, want %q", attrSystem, got, "gemini")
	}
	if got := attrs[attrOperation].AsString(); got != "generate" {
		t.Errorf("%s = %q, want %q", attrOperation, got, "generate")
	}
	if got := attrs[attrRequestModel].AsString(); got != "gemini-pro" {
		t.Errorf("%s = %q, want %q", attrRequestModel, got, "gemini-pro")
	}
	if got := attrs[attrRequestID].AsString(); got != "req-1" {
		t.Errorf("%s = %q, want %q", attrRequestID, got, "req-1")
	}
	if got := attrs[attrInputTokens].AsInt64(); got != 3 {
		t.Errorf("%s = %d, want 3", attrInputTokens, got)
	}
	if got := attrs[attrOutputTokens].AsInt64(); got != 7 {
		t.Errorf("%s = %d, want 7", attrOutputTokens, got)
	}
	if got := attrs[attrTotalTokens].AsInt64(); got != 10 {
		t.Errorf("%s = %d, want 10", attrTotalTokens, got)
	}
}

func TestHookRecordsError(t *testing.T) {
	hook, recorder := newTestHook()

	reqErr := errors.New("rate limited")

	hook.OnRequestStart(core.RequestStartEvent{
		RequestID: "req-err",
		Provider:  "gemini",
		Op:        "stream",
		Model:     "gemini-pro",
		Start:     time.Now(),
	})
	hook.OnRequestEnd(core.RequestEndEvent{
		RequestID: "req-err",
		Provider:  "gemini",
		Op:        "stream",
		Model:     "gemini-pro",
		Start:     time.Now(),
		End:       time.Now(),
		Err:       reqErr,
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]

	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status().Code)
	}
	if span.Status().Description != "rate limited" {
		t.Errorf("status description = %q, want %q", span.Status().Description, "rate limited")
	}

	// RecordError attaches an exception event.
	events := span.Events()
	if len(events) != 1 {
		t.Fatalf("span has %d events, want 1", len(events))
	}
	if events[0].Name != "exception" {
		t.Errorf("event name = %q, want %q", events[0].Name, "exception")
	}
}

func TestHookNoUsage(t *testing.T) {
	hook, recorder := newTestHook()

	hook.OnRequestStart(core.RequestStartEvent{
		RequestID: "req-2",
		Provider:  "gemini",
		Op:        "generate",
		Model:     "gemini-pro",
		Start:     time.Now(),
	})
	hook.OnRequestEnd(core.RequestEndEvent{
		RequestID: "req-2",
		Provider:  "gemini",
		Op:        "generate",
		Model:     "gemini-pro",
		Start:     time.Now(),
		End:       time.Now(),
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	attrs := attrMap(spans[0].Attributes())
	if _, ok := attrs[attrInputTokens]; ok {
		t.Error("usage attributes set without usage metadata")
	}
}

func TestHookUnmatchedEnd(t *testing.T) {
	hook, recorder := newTestHook()

	hook.OnRequestEnd(core.RequestEndEvent{
		RequestID: "never-started",
		Provider:  "gemini",
		Op:        "generate",
		Model:     "gemini-pro",
		Start:     time.Now(),
		End:       time.Now(),
	})

	if spans := recorder.Ended(); len(spans) != 0 {
		t.Errorf("recorded %d spans, want 0", len(spans))
	}
}

func TestHookInterleavedRequests(t *testing.T) {
	hook, recorder := newTestHook()

	hook.OnRequestStart(core.RequestStartEvent{
		RequestID: "a", Provider: "gemini", Op: "generate", Model: "gemini-pro", Start: time.Now(),
	})
	hook.OnRequestStart(core.RequestStartEvent{
		RequestID: "b", Provider: "gemini", Op: "stream", Model: "gemini-pro", Start: time.Now(),
	})

	// End in reverse order.
	hook.OnRequestEnd(core.RequestEndEvent{
		RequestID: "b", Provider: "gemini", Op: "stream", Model: "gemini-pro",
		Start: time.Now(), End: time.Now(),
	})
	hook.OnRequestEnd(core.RequestEndEvent{
		RequestID: "a", Provider: "gemini", Op: "generate", Model: "gemini-pro",
		Start: time.Now(), End: time.Now(),
	})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "gemini.stream" {
		t.Errorf("first ended span = %q, want %q", spans[0].Name(), "gemini.stream")
	}
	if spans[1].Name() != "gemini.generate" {
		t.Errorf("second ended span = %q, want %q", spans[1].Name(), "gemini.generate")
	}

	hook.mu.Lock()
	pending := len(hook.spans)
	hook.mu.Unlock()
	if pending != 0 {
		t.Errorf("%d spans still pending after all ends", pending)
	}
}

func TestHookConcurrent(t *testing.T) {
	hook, recorder := newTestHook()

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id string) {
			defer wg.Done()
			hook.OnRequestStart(core.RequestStartEvent{
				RequestID: id, Provider: "gemini", Op: "generate",
				Model: "gemini-pro", Start: time.Now(),
			})
			hook.OnRequestEnd(core.RequestEndEvent{
				RequestID: id, Provider: "gemini", Op: "generate",
				Model: "gemini-pro", Start: time.Now(), End: time.Now(),
			})
		}(string(rune('a' + i)))
	}
	wg.Wait()

	if spans := recorder.Ended(); len(spans) != n {
		t.Errorf("recorded %d spans, want %d", len(spans), n)
	}
}
