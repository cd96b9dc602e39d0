package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/lumenlabs/lumen/core"
)

// streamBuffer bounds how far the pipeline reads ahead of a slow
// consumer.
const streamBuffer = 8

// doStreamGenerate performs a streaming generation request.
func (p *Gemini) doStreamGenerate(ctx context.Context, req *core.GenerateContentRequest) (*core.ResponseStream, error) {
	cancel := context.CancelFunc(func() {})
	if p.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
	}

	resp, err := p.doPost(ctx, p.endpoint(taskStreamGenerate, req.Model), req)
	if err != nil {
		cancel()
		return nil, err
	}

	// Check for error status before any streaming begins
	if !statusOK(resp.StatusCode) {
		defer cancel()
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, normalizeError(resp.StatusCode, respBody)
	}

	// Create channels
	respCh := make(chan *core.GenerateContentResponse, streamBuffer)
	errCh := make(chan error, 1)
	finalCh := make(chan *core.GenerateContentResponse, 1)

	// Start goroutine to process the SSE stream
	go p.processStream(ctx, cancel, resp.Body, respCh, errCh, finalCh)

	return &core.ResponseStream{
		Ch:    respCh,
		Err:   errCh,
		Final: finalCh,
	}, nil
}

// processStream reads the SSE stream, splits the concatenated payload
// into JSON value frames, decodes and classifies each one, and delivers
// the results in frame order.
func (p *Gemini) processStream(
	ctx context.Context,
	cancel context.CancelFunc,
	body io.ReadCloser,
	respCh chan<- *core.GenerateContentResponse,
	errCh chan<- error,
	finalCh chan<- *core.GenerateContentResponse,
) {
	defer cancel()
	defer body.Close()
	defer close(respCh)
	defer close(errCh)
	defer close(finalCh)

	reader := bufio.NewReader(body)
	splitter := &frameSplitter{}
	var collected []*core.GenerateContentResponse

	for {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			if ctx.Err() != nil {
				errCh <- ctx.Err()
			} else {
				errCh <- newNetworkError(err)
			}
			return
		}
		atEOF := err == io.EOF

		// Process data lines; SSE comments and other fields are skipped.
		// Event payloads concatenate into one logical byte stream, so
		// only the line terminator and the protocol's single space
		// after the colon are stripped, never payload bytes.
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimPrefix(line, "data:")
			payload = strings.TrimPrefix(payload, " ")
			if payload != "" {
				frames, serr := splitter.Push([]byte(payload))
				for _, frame := range frames {
					// Decode the frame
					chunk := &core.GenerateContentResponse{}
					if derr := json.Unmarshal(frame, chunk); derr != nil {
						errCh <- newDecodeError(derr)
						return
					}

					// Classify before delivery; a late chunk can still
					// report blocking
					collected = append(collected, chunk)
					if cerr := checkStreamChunk(chunk, collected); cerr != nil {
						errCh <- cerr
						return
					}

					select {
					case respCh <- chunk:
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					}
				}
				if serr != nil {
					errCh <- newDecodeError(serr)
					return
				}
			}
		}

		if atEOF {
			break
		}
	}

	// Clean end of stream
	if err := splitter.Finish(); err != nil {
		errCh <- newDecodeError(err)
		return
	}

	// A stream with zero items has no final to report
	if len(collected) == 0 {
		return
	}

	finalCh <- core.MergeResponses(collected)
}

// checkStreamChunk classifies one stream chunk. The merged view of the
// stream so far, current chunk included, is only materialized when a
// stop has to carry it.
func checkStreamChunk(chunk *core.GenerateContentResponse, collected []*core.GenerateContentResponse) error {
	err := checkResponse(chunk, chunk)
	if err == nil {
		return nil
	}
	var stopped *core.StoppedError
	if errors.As(err, &stopped) {
		stopped.Response = core.MergeResponses(collected)
	}
	return err
}
