package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumenlabs/lumen/core"
)

func TestDoStreamGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify URL contains streaming endpoint
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("Path should contain ':streamGenerateContent', got %q", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("alt query param = %q, want 'sse'", r.URL.Query().Get("alt"))
		}

		// Write SSE response
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		events := []string{
			`data: {"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}`,
			``,
			`data: {"candidates":[{"content":{"parts":[{"text":" world!"}]}}]}`,
			``,
			`data: {"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}}`,
			``,
		}

		for _, line := range events {
			w.Write([]byte(line + "\n"))
		}
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	// Collect chunks
	var chunks []string
	for chunk := range stream.Ch {
		chunks = append(chunks, chunk.Text())
	}

	// Check for errors
	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if streamErr != nil {
		t.Errorf("stream error = %v", streamErr)
	}

	// Get final response
	var finalResp *core.GenerateContentResponse
	select {
	case fr := <-stream.Final:
		finalResp = fr
	default:
	}

	// Verify chunks
	if len(chunks) != 3 {
		t.Errorf("chunks count = %d, want 3", len(chunks))
	}

	accumulated := strings.Join(chunks, "")
	if accumulated != "Hello world!" {
		t.Errorf("accumulated = %q, want 'Hello world!'", accumulated)
	}

	// Verify final response
	if finalResp == nil {
		t.Fatal("finalResp is nil")
	}

	if finalResp.Text() != "Hello world!" {
		t.Errorf("final text = %q, want 'Hello world!'", finalResp.Text())
	}

	if finalResp.Candidates[0].FinishReason != core.FinishReasonStop {
		t.Errorf("FinishReason = %v, want STOP", finalResp.Candidates[0].FinishReason)
	}

	if finalResp.UsageMetadata == nil {
		t.Fatal("UsageMetadata is nil")
	}

	if finalResp.UsageMetadata.PromptTokenCount != 10 {
		t.Errorf("PromptTokenCount = %d, want 10", finalResp.UsageMetadata.PromptTokenCount)
	}

	if finalResp.UsageMetadata.CandidatesTokenCount != 5 {
		t.Errorf("CandidatesTokenCount = %d, want 5", finalResp.UsageMetadata.CandidatesTokenCount)
	}
}

func TestDoStreamGenerateEnvelope(t *testing.T) {
	// One top-level JSON array whose elements are the response chunks,
	// delivered as SSE events cut mid-string. Reassembly must preserve
	// every payload byte, including fragment-leading spaces.
	payload := `[{"candidates":[{"content":{"parts":[{"text":"Once upon"}]},"index":0}]},` +
		`{"candidates":[{"content":{"parts":[{"text":" a time"}]},"finishReason":"STOP","index":0}]}]`

	i := strings.Index(payload, " upon")
	j := strings.Index(payload, " a time")
	fragments := []string{payload[:i], payload[i:j], payload[j:]}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		for _, f := range fragments {
			w.Write([]byte("data: " + f + "\r\n\r\n"))
		}
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Tell me a story"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	var chunks []string
	for chunk := range stream.Ch {
		chunks = append(chunks, chunk.Text())
	}

	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if streamErr != nil {
		t.Errorf("stream error = %v", streamErr)
	}

	if len(chunks) != 2 {
		t.Fatalf("chunks count = %d, want 2", len(chunks))
	}
	if chunks[0] != "Once upon" {
		t.Errorf("chunks[0] = %q, want 'Once upon'", chunks[0])
	}
	if chunks[1] != " a time" {
		t.Errorf("chunks[1] = %q, want ' a time'", chunks[1])
	}

	var finalResp *core.GenerateContentResponse
	select {
	case fr := <-stream.Final:
		finalResp = fr
	default:
	}
	if finalResp == nil {
		t.Fatal("finalResp is nil")
	}
	if finalResp.Text() != "Once upon a time" {
		t.Errorf("final text = %q, want 'Once upon a time'", finalResp.Text())
	}
}

func TestDoStreamGenerateFunctionCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		events := []string{
			`data: {"candidates":[{"content":{"parts":[{"functionCall":{"name":"get_weather","args":{"location":"NYC"}}}]}}]}`,
			``,
			`data: {"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":20,"candidatesTokenCount":10}}`,
			``,
		}

		for _, line := range events {
			w.Write([]byte(line + "\n"))
		}
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("What's the weather?"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	var count int
	for range stream.Ch {
		count++
	}
	if count != 2 {
		t.Errorf("chunks count = %d, want 2", count)
	}

	var finalResp *core.GenerateContentResponse
	select {
	case fr := <-stream.Final:
		finalResp = fr
	default:
	}
	if finalResp == nil {
		t.Fatal("finalResp is nil")
	}

	calls := finalResp.FunctionCalls()
	if len(calls) != 1 {
		t.Fatalf("function calls count = %d, want 1", len(calls))
	}
	if calls[0].Name != "get_weather" {
		t.Errorf("function call name = %q, want 'get_weather'", calls[0].Name)
	}
	if calls[0].Args["location"] != "NYC" {
		t.Errorf("function call args = %v, want location NYC", calls[0].Args)
	}
}

func TestDoStreamGenerateBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`data: {"promptFeedback":{"blockReason":"SAFETY"}}` + "\n\n"))
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("something unsafe"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	var count int
	for range stream.Ch {
		count++
	}
	if count != 0 {
		t.Errorf("chunks count = %d, want 0", count)
	}

	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if streamErr == nil {
		t.Fatal("expected stream error, got nil")
	}

	var blocked *core.BlockedError
	if !errors.As(streamErr, &blocked) {
		t.Fatalf("stream error is not BlockedError: %v", streamErr)
	}
	if blocked.Reason != core.BlockReasonSafety {
		t.Errorf("Reason = %v, want SAFETY", blocked.Reason)
	}

	// No final after a blocked stream
	select {
	case fr := <-stream.Final:
		if fr != nil {
			t.Errorf("finalResp = %v, want none", fr)
		}
	default:
	}
}

func TestDoStreamGenerateStopped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		events := []string{
			`data: {"candidates":[{"content":{"parts":[{"text":"I think"}]}}]}`,
			``,
			`data: {"candidates":[{"content":{"parts":[{"text":" therefore"}]},"finishReason":"SAFETY"}]}`,
			``,
		}

		for _, line := range events {
			w.Write([]byte(line + "\n"))
		}
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	var chunks []string
	for chunk := range stream.Ch {
		chunks = append(chunks, chunk.Text())
	}

	// The offending chunk is reported on Err, not Ch
	if len(chunks) != 1 {
		t.Fatalf("chunks count = %d, want 1", len(chunks))
	}
	if chunks[0] != "I think" {
		t.Errorf("chunks[0] = %q, want 'I think'", chunks[0])
	}

	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if streamErr == nil {
		t.Fatal("expected stream error, got nil")
	}

	var stopped *core.StoppedError
	if !errors.As(streamErr, &stopped) {
		t.Fatalf("stream error is not StoppedError: %v", streamErr)
	}
	if stopped.Reason != core.FinishReasonSafety {
		t.Errorf("Reason = %v, want SAFETY", stopped.Reason)
	}

	// Everything received so far is preserved on the error
	if stopped.Response == nil {
		t.Fatal("stopped.Response is nil")
	}
	if stopped.Response.Text() != "I think therefore" {
		t.Errorf("partial text = %q, want 'I think therefore'", stopped.Response.Text())
	}

	select {
	case fr := <-stream.Final:
		if fr != nil {
			t.Errorf("finalResp = %v, want none", fr)
		}
	default:
	}
}

func TestDoStreamGenerateEmptyChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`data: {"candidates":[]}` + "\n\n"))
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	for range stream.Ch {
	}

	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if !errors.Is(streamErr, core.ErrDecode) {
		t.Errorf("stream error = %v, want ErrDecode in chain", streamErr)
	}
}

func TestDoStreamGenerateZeroItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		// An empty array envelope carries no chunks at all
		w.Write([]byte("data: []\n\n"))
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	var count int
	for range stream.Ch {
		count++
	}
	if count != 0 {
		t.Errorf("chunks count = %d, want 0", count)
	}

	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if streamErr != nil {
		t.Errorf("stream error = %v, want none", streamErr)
	}

	// Nothing collected means nothing to report as final
	select {
	case fr := <-stream.Final:
		if fr != nil {
			t.Errorf("finalResp = %v, want none", fr)
		}
	default:
	}
}

func TestDoStreamGenerateError(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		body         string
		wantSentinel error
	}{
		{
			name:         "unauthorized",
			statusCode:   401,
			body:         `{"error":{"code":401,"message":"Request had invalid credentials","status":"UNAUTHENTICATED"}}`,
			wantSentinel: core.ErrUnauthorized,
		},
		{
			name:         "invalid api key",
			statusCode:   400,
			body:         `{"error":{"message":"API key not valid. Please pass a valid API key."}}`,
			wantSentinel: core.ErrInvalidKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := New("bad-key", WithBaseURL(server.URL))

			req := &core.GenerateContentRequest{
				Model:    "gemini-pro",
				Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
			}

			stream, err := p.StreamGenerateContent(context.Background(), req)
			if err == nil {
				t.Fatal("StreamGenerateContent() should return error")
			}
			if stream != nil {
				t.Error("stream should be nil on setup failure")
			}
			if !errors.Is(err, tt.wantSentinel) {
				t.Errorf("error = %v, want %v in chain", err, tt.wantSentinel)
			}
		})
	}
}

func TestDoStreamGenerateTruncatedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		// The array envelope opens and one chunk completes, then the
		// connection drops before the closing bracket arrives.
		w.Write([]byte(`data: [{"candidates":[{"content":{"parts":[{"text":"partial"}]}}]}` + "\n"))
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
	}

	stream, err := p.StreamGenerateContent(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	var chunks []string
	for chunk := range stream.Ch {
		chunks = append(chunks, chunk.Text())
	}

	// The completed chunk was delivered before the truncation surfaced
	if len(chunks) != 1 {
		t.Fatalf("chunks count = %d, want 1", len(chunks))
	}
	if chunks[0] != "partial" {
		t.Errorf("chunks[0] = %q, want 'partial'", chunks[0])
	}

	var streamErr error
	select {
	case e := <-stream.Err:
		streamErr = e
	default:
	}
	if !errors.Is(streamErr, core.ErrDecode) {
		t.Errorf("stream error = %v, want ErrDecode in chain", streamErr)
	}

	select {
	case fr := <-stream.Final:
		if fr != nil {
			t.Errorf("finalResp = %v, want none", fr)
		}
	default:
	}
}

func TestDoStreamGenerateCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		w.Write([]byte(`data: {"candidates":[{"content":{"parts":[{"text":"first"}]}}]}` + "\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		// Hold the stream open until the client goes away
		<-r.Context().Done()
	}))
	defer server.Close()

	p := New("test-key", WithBaseURL(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := &core.GenerateContentRequest{
		Model:    "gemini-pro",
		Contents: []core.Content{core.NewUserContent(core.Text("Hello"))},
	}

	stream, err := p.StreamGenerateContent(ctx, req)
	if err != nil {
		t.Fatalf("StreamGenerateContent() error = %v", err)
	}

	first, ok := <-stream.Ch
	if !ok {
		t.Fatal("stream closed before first chunk")
	}
	if first.Text() != "first" {
		t.Errorf("first chunk = %q, want 'first'", first.Text())
	}

	cancel()

	// Drain whatever was in flight before the cancellation landed
	for range stream.Ch {
	}

	streamErr := <-stream.Err
	if !errors.Is(streamErr, context.Canceled) {
		t.Errorf("stream error = %v, want context.Canceled", streamErr)
	}

	select {
	case fr := <-stream.Final:
		if fr != nil {
			t.Errorf("finalResp = %v, want none", fr)
		}
	default:
	}
}
