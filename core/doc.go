// Package core provides the Lumen SDK client and types for generative
// language models.
//
// Lumen is a Go-native client for content generation APIs. The core
// package defines the fundamental abstractions that providers implement.
//
// # Client and Provider
//
// The primary entry point is [Client], which wraps a [Provider] and adds
// telemetry and a fluent builder API:
//
//	provider := gemini.New(os.Getenv("GEMINI_API_KEY"))
//	client := core.NewClient(provider, core.WithTelemetry(myHook))
//
// # GenerateBuilder
//
// The [GenerateBuilder] provides a fluent API for constructing requests:
//
//	resp, err := client.Generate("gemini-pro").
//	    System("You are a concise assistant.").
//	    User("Hello!").
//	    Temperature(0.7).
//	    GetResponse(ctx)
//	fmt.Println(resp.Text())
//
// GenerateBuilder is NOT thread-safe. Each goroutine should create its
// own builder instance.
//
// # Streaming
//
// Streaming is a first-class primitive. Use [GenerateBuilder.Stream]:
//
//	stream, err := client.Generate(model).User("Tell me a story.").Stream(ctx)
//	if err != nil {
//	    return err
//	}
//	for chunk := range stream.Ch {
//	    fmt.Print(chunk.Text())
//	}
//
// The [ResponseStream] type provides three channels:
//   - Ch: Emits complete response chunks in order
//   - Err: Emits at most one error
//   - Final: Emits the merged response with usage metadata
//
// Use [DrainStream] as a convenience to consume the stream and return
// the merged response.
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//   - [ErrUnauthorized]: Invalid or missing credentials
//   - [ErrInvalidKey]: Key rejected by the service
//   - [ErrRateLimited]: Provider rate limit exceeded
//   - [ErrBadRequest]: Invalid request parameters
//   - [ErrServer]: Provider server error (5xx)
//   - [ErrNetwork]: Network connectivity issues
//   - [ErrDecode]: Response parsing failed
//   - [ErrBlocked]: Prompt rejected by safety screening
//   - [ErrStopped]: Generation ended abnormally
//
// Use errors.Is to classify, errors.As to reach the detail types:
//
//	var blocked *core.BlockedError
//	if errors.As(err, &blocked) {
//	    fmt.Println("blocked:", blocked.Reason)
//	}
//
// # Telemetry
//
// Implement [TelemetryHook] to observe request lifecycle:
//
//	func (t MyTelemetry) OnRequestStart(e RequestStartEvent) {
//	    log.Printf("starting %s %s", e.Op, e.Model)
//	}
//
// Paired events share a RequestID generated per request.
//
// # Thread Safety
//
// [Client] is safe for concurrent use across goroutines.
// [GenerateBuilder] is NOT thread-safe.
// [ResponseStream] channels may be read by one goroutine at a time.
// Providers SHOULD be safe for concurrent calls.
package core
