package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Event types are designed to NEVER include sensitive data:
//   - API keys are NEVER included (stored separately as core.Secret)
//   - Prompt content is NEVER included
//   - Response content (model outputs) is NEVER included
//   - Only operational metadata is exposed (provider, model, timing, token counts)
//
// If extending this interface, maintain these properties. Never add
// fields that could contain API keys, user prompts, or model responses.
type TelemetryHook interface {
	// OnRequestStart is called when a request to a provider begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request to a provider completes.
	// For streaming operations this fires after the stream terminates.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
//
// RequestID correlates the start and end events of one logical request
// and is unique per request, not taken from the wire.
type RequestStartEvent struct {
	RequestID string    // Correlates with the matching RequestEndEvent
	Provider  string    // Provider identifier (e.g., "gemini")
	Op        string    // Operation name (e.g., "generate", "stream", "count_tokens")
	Model     ModelID   // Model being called
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
//
// The Err field holds the classified error, not raw provider output
// which might inadvertently include sensitive data.
type RequestEndEvent struct {
	RequestID string         // Matches the RequestStartEvent
	Provider  string         // Provider identifier
	Op        string         // Operation name
	Model     ModelID        // Model that was called
	Start     time.Time      // When the request started
	End       time.Time      // When the request completed
	Usage     *UsageMetadata // Token consumption, nil when unavailable
	Err       error          // Error if request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
