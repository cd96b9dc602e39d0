package gemini

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lumenlabs/lumen/core"
)

// apiErrorResponse is the error envelope the API returns:
// {"error":{"code":400,"message":"...","status":"INVALID_ARGUMENT"}}
type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// statusOK reports whether the HTTP status is in the 2xx success range.
func statusOK(status int) bool {
	return status >= 200 && status < 300
}

// normalizeError converts a non-2xx HTTP response to an APIError with
// the appropriate sentinel. When the body is not the structured error
// envelope, its raw text is carried verbatim as the message.
func normalizeError(status int, body []byte) error {
	// Parse error response if possible
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	code := errResp.Error.Status
	if code == "" {
		code = "unknown_error"
	}

	// Some credential and region failures only show in the message, not
	// in the status code.
	sentinel := sentinelForStatus(status)
	switch {
	case strings.Contains(message, "API key not valid"):
		sentinel = core.ErrInvalidKey
	case strings.Contains(message, "User location is not supported"):
		sentinel = core.ErrUnsupportedLocation
	}

	return &core.APIError{
		Provider: "gemini",
		Status:   status,
		Code:     code,
		Message:  message,
		Err:      sentinel,
	}
}

// sentinelForStatus maps an HTTP status code to a core sentinel error.
// The API reports unknown models as 404, which callers should treat as
// a bad request rather than a missing resource.
func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return core.ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrUnauthorized
	case status == http.StatusNotFound:
		return core.ErrBadRequest
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimited
	case status >= 500:
		return core.ErrServer
	default:
		return core.ErrServer
	}
}

// newNetworkError creates an APIError for network-related failures.
func newNetworkError(err error) error {
	return &core.APIError{
		Provider: "gemini",
		Message:  err.Error(),
		Err:      core.ErrNetwork,
	}
}

// newDecodeError creates an APIError for payload decode failures.
func newDecodeError(err error) error {
	return &core.APIError{
		Provider: "gemini",
		Message:  err.Error(),
		Err:      core.ErrDecode,
	}
}

// checkResponse classifies a decoded response whose HTTP exchange
// succeeded. partial is the response attached to a StoppedError: for
// streams, everything merged up to and including the current chunk;
// for single-shot calls, the response itself.
func checkResponse(resp *core.GenerateContentResponse, partial *core.GenerateContentResponse) error {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason.Set() && len(resp.Candidates) == 0 {
		return &core.BlockedError{Reason: fb.BlockReason, Feedback: fb}
	}

	for _, cand := range resp.Candidates {
		if !cand.FinishReason.Normal() {
			return &core.StoppedError{Reason: cand.FinishReason, Response: partial}
		}
	}

	// A response with neither candidates nor a block reason is an
	// unexpected empty payload, not a silent success.
	if len(resp.Candidates) == 0 {
		return newDecodeError(errors.New("response has no candidates and no block reason"))
	}

	return nil
}
