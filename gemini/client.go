package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lumenlabs/lumen/core"
)

// task enumerates the API request kinds. Endpoints are derived by
// exhaustive match so a new kind cannot ship without one.
type task int

const (
	taskGenerate task = iota
	taskStreamGenerate
	taskCountTokens
	taskEmbedContent
	taskBatchEmbedContents
)

// suffix returns the method segment after the colon in the request path.
func (t task) suffix() string {
	switch t {
	case taskGenerate:
		return "generateContent"
	case taskStreamGenerate:
		return "streamGenerateContent"
	case taskCountTokens:
		return "countTokens"
	case taskEmbedContent:
		return "embedContent"
	case taskBatchEmbedContents:
		return "batchEmbedContents"
	}
	panic(fmt.Sprintf("gemini: unknown task %d", int(t)))
}

// normalizeModelName qualifies a bare model name with the models/
// collection prefix. Names that already name a collection, such as
// models/... or tunedModels/..., pass through unchanged.
func normalizeModelName(model core.ModelID) string {
	name := string(model)
	if strings.Contains(name, "/") {
		return name
	}
	return "models/" + name
}

// endpoint builds the request URL for a task against a model.
func (p *Gemini) endpoint(t task, model core.ModelID) string {
	url := fmt.Sprintf("%s/%s/%s:%s",
		p.config.BaseURL, p.config.APIVersion, normalizeModelName(model), t.suffix())
	if t == taskStreamGenerate {
		url += "?alt=sse"
	}
	return url
}

// doPost issues a JSON POST request and returns the raw HTTP response.
// The caller owns resp.Body.
func (p *Gemini) doPost(ctx context.Context, url string, payload any) (*http.Response, error) {
	// Marshal request body
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newDecodeError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newNetworkError(err)
	}

	// Set headers
	for key, values := range p.buildHeaders() {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	// Execute request
	resp, err := p.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}

	return resp, nil
}

// doJSON issues a buffered request: POST, validate the status, decode
// the body into out.
func (p *Gemini) doJSON(ctx context.Context, t task, model core.ModelID, payload, out any) error {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	resp, err := p.doPost(ctx, p.endpoint(t, model), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Read response body
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return newNetworkError(err)
	}

	// Check for error status
	if !statusOK(resp.StatusCode) {
		return normalizeError(resp.StatusCode, respBody)
	}

	// Parse response
	if err := json.Unmarshal(respBody, out); err != nil {
		return newDecodeError(err)
	}

	return nil
}

// doGenerate performs a non-streaming generation request.
func (p *Gemini) doGenerate(ctx context.Context, req *core.GenerateContentRequest) (*core.GenerateContentResponse, error) {
	var resp core.GenerateContentResponse
	if err := p.doJSON(ctx, taskGenerate, req.Model, req, &resp); err != nil {
		return nil, err
	}

	// A 2xx response can still carry a semantic failure
	if err := checkResponse(&resp, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// doCountTokens performs a token counting request.
func (p *Gemini) doCountTokens(ctx context.Context, req *core.CountTokensRequest) (*core.CountTokensResponse, error) {
	var resp core.CountTokensResponse
	if err := p.doJSON(ctx, taskCountTokens, req.Model, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// embedContentBody wraps an embed request with the model restated,
// which the wire format requires.
type embedContentBody struct {
	Model string `json:"model"`
	*core.EmbedContentRequest
}

// batchEmbedBody is the request body for batchEmbedContents.
type batchEmbedBody struct {
	Requests []embedContentBody `json:"requests"`
}

// doEmbedContent performs an embedding request for a single content.
func (p *Gemini) doEmbedContent(ctx context.Context, req *core.EmbedContentRequest) (*core.EmbedContentResponse, error) {
	body := embedContentBody{
		Model:               normalizeModelName(req.Model),
		EmbedContentRequest: req,
	}

	var resp core.EmbedContentResponse
	if err := p.doJSON(ctx, taskEmbedContent, req.Model, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doBatchEmbedContents performs an embedding request for several
// contents in one round trip. Entries that do not name their own model
// inherit the batch model.
func (p *Gemini) doBatchEmbedContents(ctx context.Context, req *core.BatchEmbedContentsRequest) (*core.BatchEmbedContentsResponse, error) {
	body := batchEmbedBody{Requests: make([]embedContentBody, len(req.Requests))}
	for i := range req.Requests {
		r := &req.Requests[i]
		model := r.Model
		if model == "" {
			model = req.Model
		}
		body.Requests[i] = embedContentBody{
			Model:               normalizeModelName(model),
			EmbedContentRequest: r,
		}
	}

	var resp core.BatchEmbedContentsResponse
	if err := p.doJSON(ctx, taskBatchEmbedContents, req.Model, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
