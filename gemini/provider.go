package gemini

import (
	"context"
	"net/http"

	"github.com/lumenlabs/lumen/core"
)

// Gemini is a generative model provider implementation for the Google
// Gemini API. Gemini is safe for concurrent use.
type Gemini struct {
	config Config
}

// New creates a new Gemini provider with the given API key and options.
func New(apiKey string, opts ...Option) *Gemini {
	cfg := Config{
		APIKey:     core.NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		HTTPClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Gemini{config: cfg}
}

// ID returns the provider identifier.
func (p *Gemini) ID() string {
	return "gemini"
}

// Models returns the list of available models.
func (p *Gemini) Models() []core.ModelInfo {
	// Return a copy to prevent mutation
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Supports reports whether the provider supports the given feature.
func (p *Gemini) Supports(feature core.Feature) bool {
	switch feature {
	case core.FeatureGenerate, core.FeatureGenerateStreaming, core.FeatureCountTokens,
		core.FeatureEmbeddings, core.FeatureFunctionCalling, core.FeatureVision:
		return true
	default:
		return false
	}
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *Gemini) buildHeaders() http.Header {
	headers := make(http.Header)

	// Required headers for Gemini API
	headers.Set("x-goog-api-key", p.config.APIKey.Expose())
	headers.Set("Content-Type", "application/json")

	// Copy any extra headers
	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}

// GenerateContent sends a non-streaming generation request.
func (p *Gemini) GenerateContent(ctx context.Context, req *core.GenerateContentRequest) (*core.GenerateContentResponse, error) {
	return p.doGenerate(ctx, req)
}

// StreamGenerateContent sends a streaming generation request.
func (p *Gemini) StreamGenerateContent(ctx context.Context, req *core.GenerateContentRequest) (*core.ResponseStream, error) {
	return p.doStreamGenerate(ctx, req)
}

// CountTokens tokenizes the request contents and reports the count.
func (p *Gemini) CountTokens(ctx context.Context, req *core.CountTokensRequest) (*core.CountTokensResponse, error) {
	return p.doCountTokens(ctx, req)
}

// EmbedContent computes an embedding vector for the given content.
func (p *Gemini) EmbedContent(ctx context.Context, req *core.EmbedContentRequest) (*core.EmbedContentResponse, error) {
	return p.doEmbedContent(ctx, req)
}

// BatchEmbedContents computes embedding vectors for several contents in
// one round trip.
func (p *Gemini) BatchEmbedContents(ctx context.Context, req *core.BatchEmbedContentsRequest) (*core.BatchEmbedContentsResponse, error) {
	return p.doBatchEmbedContents(ctx, req)
}

// Compile-time check that Gemini implements Provider.
var _ core.Provider = (*Gemini)(nil)

// Compile-time check that Gemini implements TokenCounter.
var _ core.TokenCounter = (*Gemini)(nil)

// Compile-time check that Gemini implements Embedder.
var _ core.Embedder = (*Gemini)(nil)
