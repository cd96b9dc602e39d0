package core

import (
	"errors"
	"fmt"
)

// APIError represents an error returned by a provider with full context.
type APIError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, code=%s, request_id=%s)",
			e.Provider, e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (status=%d, code=%s)",
		e.Provider, e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Sentinel errors for classification.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidKey          = errors.New("invalid api key")
	ErrRateLimited         = errors.New("rate limited")
	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("not found")
	ErrServer              = errors.New("server error")
	ErrNetwork             = errors.New("network error")
	ErrDecode              = errors.New("decode error")
	ErrNotSupported        = errors.New("operation not supported")
	ErrUnsupportedLocation = errors.New("user location not supported")
)

// Semantic errors raised from structurally valid responses.
var (
	ErrBlocked = errors.New("prompt blocked")
	ErrStopped = errors.New("response stopped")
)

// Validation errors with actionable guidance.
var (
	ErrModelRequired = errors.New("model required: pass a model ID to Client.Generate(), e.g., client.Generate(\"gemini-pro\")")
	ErrNoContent     = errors.New("no content: add at least one part using .Text(), .User(), or .Content()")
)

// BlockedError reports that the service refused to generate because the
// prompt itself was rejected. Feedback carries the rating detail when
// the server provided any.
type BlockedError struct {
	Reason   BlockReason
	Feedback *PromptFeedback
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	reason := string(e.Reason)
	if reason == "" {
		reason = "not set"
	}
	return fmt.Sprintf("prompt blocked: %s", reason)
}

// Unwrap lets errors.Is match ErrBlocked.
func (e *BlockedError) Unwrap() error {
	return ErrBlocked
}

// StoppedError reports that generation ended for an abnormal reason such
// as a safety stop. Response holds whatever output was produced before
// the stop, merged across stream chunks when streaming.
type StoppedError struct {
	Reason   FinishReason
	Response *GenerateContentResponse
}

// Error implements the error interface.
func (e *StoppedError) Error() string {
	return fmt.Sprintf("response stopped: %s", e.Reason)
}

// Unwrap lets errors.Is match ErrStopped.
func (e *StoppedError) Unwrap() error {
	return ErrStopped
}
