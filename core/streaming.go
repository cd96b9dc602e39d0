package core

import "context"

// ResponseStream represents a streaming response from a provider.
//
// Channel Rules:
//   - Providers MUST close Ch, Err, and Final when finished
//   - On context cancellation, providers MUST terminate promptly and close channels
//   - Err channel emits at most one error
//   - Final emits exactly once on success (or zero times on setup/mid-stream failure)
//   - Each value on Ch is a complete, independently decoded response chunk
type ResponseStream struct {
	// Ch emits response chunks in arrival order. Closed when stream ends.
	Ch <-chan *GenerateContentResponse

	// Err emits at most one error. MUST be closed when stream ends.
	// If an error occurs after setup, send on Err then close all channels.
	Err <-chan error

	// Final is sent exactly once after successful completion and carries
	// the merge of every chunk, so callers that only want the assembled
	// response can ignore Ch entirely.
	Final <-chan *GenerateContentResponse
}

// DrainStream consumes the whole stream and returns the merged response.
// Blocks until the stream completes or the context cancels.
func DrainStream(ctx context.Context, s *ResponseStream) (*GenerateContentResponse, error) {
	if s == nil {
		return nil, ErrBadRequest
	}

	var collected []*GenerateContentResponse
	var streamErr error
	var finalResp *GenerateContentResponse

	// Read all chunks, checking for cancellation
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case chunk, ok := <-s.Ch:
			if !ok {
				// Channel closed, move on
				goto checkErr
			}
			collected = append(collected, chunk)

		case err, ok := <-s.Err:
			if ok && err != nil {
				streamErr = err
			}
			// Continue draining Ch even after error

		case resp, ok := <-s.Final:
			if ok {
				finalResp = resp
			}
		}
	}

checkErr:
	// Drain any remaining error
	select {
	case err, ok := <-s.Err:
		if ok && err != nil {
			streamErr = err
		}
	default:
	}

	if streamErr != nil {
		return nil, streamErr
	}

	// Wait for the final response
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp, ok := <-s.Final:
		if ok {
			finalResp = resp
		}
	}

	// An error sent between Ch closing and Final closing is buffered on
	// Err and visible once Final has closed, so check once more.
	select {
	case err, ok := <-s.Err:
		if ok && err != nil {
			streamErr = err
		}
	default:
	}
	if streamErr != nil {
		return nil, streamErr
	}

	if finalResp == nil {
		finalResp = MergeResponses(collected)
	}
	if finalResp == nil {
		return nil, ErrDecode
	}
	return finalResp, nil
}

// MergeResponses combines streamed chunks into one response. Text parts
// for the same candidate index are concatenated in arrival order; the
// latest finish reason, safety ratings and usage win; citation sources
// accumulate. Returns nil when no chunks were collected.
func MergeResponses(chunks []*GenerateContentResponse) *GenerateContentResponse {
	if len(chunks) == 0 {
		return nil
	}

	merged := &GenerateContentResponse{}
	byIndex := make(map[int]*Candidate)
	var order []int

	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		if chunk.PromptFeedback != nil && merged.PromptFeedback == nil {
			merged.PromptFeedback = chunk.PromptFeedback
		}
		if chunk.UsageMetadata != nil {
			merged.UsageMetadata = chunk.UsageMetadata
		}
		for _, cand := range chunk.Candidates {
			acc, ok := byIndex[cand.Index]
			if !ok {
				acc = &Candidate{Index: cand.Index, Content: Content{Role: cand.Content.Role}}
				byIndex[cand.Index] = acc
				order = append(order, cand.Index)
			}
			acc.Content.Parts = appendParts(acc.Content.Parts, cand.Content.Parts)
			if acc.Content.Role == "" {
				acc.Content.Role = cand.Content.Role
			}
			if cand.FinishReason != "" {
				acc.FinishReason = cand.FinishReason
			}
			if len(cand.SafetyRatings) > 0 {
				acc.SafetyRatings = cand.SafetyRatings
			}
			if cand.CitationMetadata != nil {
				if acc.CitationMetadata == nil {
					acc.CitationMetadata = &CitationMetadata{}
				}
				acc.CitationMetadata.CitationSources = append(
					acc.CitationMetadata.CitationSources,
					cand.CitationMetadata.CitationSources...)
			}
		}
	}

	for _, idx := range order {
		merged.Candidates = append(merged.Candidates, *byIndex[idx])
	}
	return merged
}

// appendParts appends src parts to dst, coalescing adjacent text parts
// so the merged candidate reads as continuous text.
func appendParts(dst, src []Part) []Part {
	for _, p := range src {
		if p.Text != "" && len(dst) > 0 && dst[len(dst)-1].Text != "" &&
			dst[len(dst)-1].InlineData == nil {
			dst[len(dst)-1].Text += p.Text
			continue
		}
		dst = append(dst, p)
	}
	return dst
}
