package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider is the interface that generative model providers must implement.
// Providers SHOULD be safe for concurrent calls.
// If a provider cannot be concurrent-safe, it MUST document this.
type Provider interface {
	// ID returns the provider identifier (e.g., "gemini").
	ID() string

	// Models returns the list of models available from this provider.
	Models() []ModelInfo

	// Supports reports whether the provider supports the given feature.
	Supports(feature Feature) bool

	// GenerateContent sends a non-streaming generation request.
	GenerateContent(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error)

	// StreamGenerateContent sends a streaming generation request.
	StreamGenerateContent(ctx context.Context, req *GenerateContentRequest) (*ResponseStream, error)
}

// TokenCounter is an optional interface for providers that can count
// tokens without generating.
type TokenCounter interface {
	// CountTokens tokenizes the request contents and reports the count.
	CountTokens(ctx context.Context, req *CountTokensRequest) (*CountTokensResponse, error)
}

// Client is the main entry point for interacting with generative providers.
// Client is safe for concurrent use.
type Client struct {
	provider  Provider
	telemetry TelemetryHook
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given provider and options.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:  p,
		telemetry: NoopTelemetryHook{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.telemetry = h
		}
	}
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Generate returns a GenerateBuilder for constructing and executing a
// generation request against the given model.
func (c *Client) Generate(model ModelID) *GenerateBuilder {
	return &GenerateBuilder{
		client: c,
		req: GenerateContentRequest{
			Model: model,
		},
	}
}

// CountTokens counts the tokens the given contents occupy for the model.
// Returns ErrNotSupported when the provider cannot count tokens.
func (c *Client) CountTokens(ctx context.Context, model ModelID, contents ...Content) (*CountTokensResponse, error) {
	counter, ok := c.provider.(TokenCounter)
	if !ok {
		return nil, ErrNotSupported
	}
	if model == "" {
		return nil, ErrModelRequired
	}
	if len(contents) == 0 {
		return nil, ErrNoContent
	}
	return counter.CountTokens(ctx, &CountTokensRequest{Model: model, Contents: contents})
}

// GenerateBuilder provides a fluent API for building generation requests.
// GenerateBuilder is NOT thread-safe and should not be shared across goroutines.
type GenerateBuilder struct {
	client *Client
	req    GenerateContentRequest
}

// System sets the system instruction for the request.
func (b *GenerateBuilder) System(s string) *GenerateBuilder {
	b.req.SystemInstruction = &Content{Parts: []Part{Text(s)}}
	return b
}

// User appends a user-role text turn.
func (b *GenerateBuilder) User(s string) *GenerateBuilder {
	b.req.Contents = append(b.req.Contents, NewUserContent(Text(s)))
	return b
}

// Model appends a model-role text turn, used to replay conversation
// history. The model being called is fixed by Client.Generate.
func (b *GenerateBuilder) Model(s string) *GenerateBuilder {
	b.req.Contents = append(b.req.Contents, NewModelContent(Text(s)))
	return b
}

// Content appends pre-built contents, for multimodal or function turns.
func (b *GenerateBuilder) Content(cs ...Content) *GenerateBuilder {
	b.req.Contents = append(b.req.Contents, cs...)
	return b
}

// Temperature sets the sampling temperature.
func (b *GenerateBuilder) Temperature(v float32) *GenerateBuilder {
	b.config().Temperature = &v
	return b
}

// TopP sets the nucleus sampling parameter.
func (b *GenerateBuilder) TopP(v float32) *GenerateBuilder {
	b.config().TopP = &v
	return b
}

// TopK sets the top-k sampling parameter.
func (b *GenerateBuilder) TopK(n int) *GenerateBuilder {
	b.config().TopK = &n
	return b
}

// MaxOutputTokens caps the number of generated tokens.
func (b *GenerateBuilder) MaxOutputTokens(n int) *GenerateBuilder {
	b.config().MaxOutputTokens = &n
	return b
}

// CandidateCount sets how many alternatives to generate.
func (b *GenerateBuilder) CandidateCount(n int) *GenerateBuilder {
	b.config().CandidateCount = &n
	return b
}

// StopSequences sets sequences that end generation when produced.
func (b *GenerateBuilder) StopSequences(seqs ...string) *GenerateBuilder {
	b.config().StopSequences = seqs
	return b
}

// ResponseMIMEType requests an output format such as "application/json".
func (b *GenerateBuilder) ResponseMIMEType(mime string) *GenerateBuilder {
	b.config().ResponseMIMEType = mime
	return b
}

// SafetySetting adjusts the blocking threshold for one harm category.
func (b *GenerateBuilder) SafetySetting(cat HarmCategory, threshold HarmBlockThreshold) *GenerateBuilder {
	b.req.SafetySettings = append(b.req.SafetySettings, SafetySetting{
		Category:  cat,
		Threshold: threshold,
	})
	return b
}

// Tools sets the function declarations offered to the model.
func (b *GenerateBuilder) Tools(ts ...Tool) *GenerateBuilder {
	b.req.Tools = ts
	return b
}

func (b *GenerateBuilder) config() *GenerationConfig {
	if b.req.GenerationConfig == nil {
		b.req.GenerationConfig = &GenerationConfig{}
	}
	return b.req.GenerationConfig
}

// validate checks that the request is valid.
func (b *GenerateBuilder) validate() error {
	if b.req.Model == "" {
		return ErrModelRequired
	}
	if len(b.req.Contents) == 0 {
		return ErrNoContent
	}
	for _, c := range b.req.Contents {
		if c.Empty() {
			return ErrNoContent
		}
	}
	return nil
}

// GetResponse executes the request and returns the complete response.
// It applies validation and telemetry.
func (b *GenerateBuilder) GetResponse(ctx context.Context) (*GenerateContentResponse, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	providerID := b.client.provider.ID()
	requestID := uuid.NewString()

	b.client.telemetry.OnRequestStart(RequestStartEvent{
		RequestID: requestID,
		Provider:  providerID,
		Op:        "generate",
		Model:     b.req.Model,
		Start:     start,
	})

	resp, err := b.client.provider.GenerateContent(ctx, &b.req)

	var usage *UsageMetadata
	if resp != nil {
		usage = resp.UsageMetadata
	}
	b.client.telemetry.OnRequestEnd(RequestEndEvent{
		RequestID: requestID,
		Provider:  providerID,
		Op:        "generate",
		Model:     b.req.Model,
		Start:     start,
		End:       time.Now(),
		Usage:     usage,
		Err:       err,
	})

	return resp, err
}

// Stream executes the request and returns a streaming response.
// It applies validation and telemetry.
func (b *GenerateBuilder) Stream(ctx context.Context) (*ResponseStream, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	providerID := b.client.provider.ID()
	requestID := uuid.NewString()

	b.client.telemetry.OnRequestStart(RequestStartEvent{
		RequestID: requestID,
		Provider:  providerID,
		Op:        "stream",
		Model:     b.req.Model,
		Start:     start,
	})

	stream, err := b.client.provider.StreamGenerateContent(ctx, &b.req)
	if err != nil {
		b.client.telemetry.OnRequestEnd(RequestEndEvent{
			RequestID: requestID,
			Provider:  providerID,
			Op:        "stream",
			Model:     b.req.Model,
			Start:     start,
			End:       time.Now(),
			Err:       err,
		})
		return nil, err
	}

	return wrapStreamWithTelemetry(stream, b.client.telemetry, requestID, providerID, b.req.Model, start), nil
}

// wrapStreamWithTelemetry wraps a ResponseStream to emit telemetry when
// the stream terminates. Ch passes through untouched; Final and Err are
// forwarded so the end event can record usage and the terminal error.
func wrapStreamWithTelemetry(
	stream *ResponseStream,
	hook TelemetryHook,
	requestID string,
	provider string,
	model ModelID,
	start time.Time,
) *ResponseStream {
	finalCh := make(chan *GenerateContentResponse, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(finalCh)
		defer close(errCh)

		var usage *UsageMetadata
		var finalErr error

		final, errs := stream.Final, stream.Err
		for final != nil || errs != nil {
			select {
			case resp, ok := <-final:
				if !ok {
					final = nil
					continue
				}
				if resp != nil {
					usage = resp.UsageMetadata
				}
				finalCh <- resp
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil {
					finalErr = err
					errCh <- err
				}
			}
		}

		hook.OnRequestEnd(RequestEndEvent{
			RequestID: requestID,
			Provider:  provider,
			Op:        "stream",
			Model:     model,
			Start:     start,
			End:       time.Now(),
			Usage:     usage,
			Err:       finalErr,
		})
	}()

	return &ResponseStream{
		Ch:    stream.Ch,
		Err:   errCh,
		Final: finalCh,
	}
}
