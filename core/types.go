package core

import "encoding/json"

// Feature represents a capability that a provider may support.
type Feature string

const (
	FeatureGenerate          Feature = "generate"
	FeatureGenerateStreaming Feature = "generate_streaming"
	FeatureCountTokens       Feature = "count_tokens"
	FeatureEmbeddings        Feature = "embeddings"
	FeatureFunctionCalling   Feature = "function_calling"
	FeatureVision            Feature = "vision"
)

// ModelID is a string identifier for a model.
// Using string avoids coupling to provider-specific enums.
type ModelID string

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	ID           ModelID   `json:"id"`
	DisplayName  string    `json:"display_name"`
	Capabilities []Feature `json:"capabilities"`
	InputLimit   int       `json:"input_token_limit,omitempty"`
	OutputLimit  int       `json:"output_token_limit,omitempty"`
}

// HasCapability reports whether the model supports the given feature.
func (m ModelInfo) HasCapability(f Feature) bool {
	for _, cap := range m.Capabilities {
		if cap == f {
			return true
		}
	}
	return false
}

// FinishReason explains why a candidate stopped producing tokens.
// Values not recognized by this version of the library decode as
// FinishReasonUnknown rather than failing.
type FinishReason string

const (
	FinishReasonUnspecified FinishReason = "FINISH_REASON_UNSPECIFIED"
	FinishReasonStop        FinishReason = "STOP"
	FinishReasonMaxTokens   FinishReason = "MAX_TOKENS"
	FinishReasonSafety      FinishReason = "SAFETY"
	FinishReasonRecitation  FinishReason = "RECITATION"
	FinishReasonOther       FinishReason = "OTHER"
	FinishReasonUnknown     FinishReason = "UNKNOWN"
)

var knownFinishReasons = map[string]bool{
	string(FinishReasonUnspecified): true,
	string(FinishReasonStop):        true,
	string(FinishReasonMaxTokens):   true,
	string(FinishReasonSafety):      true,
	string(FinishReasonRecitation):  true,
	string(FinishReasonOther):       true,
}

// UnmarshalJSON maps unrecognized wire values to FinishReasonUnknown.
func (r *FinishReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" && !knownFinishReasons[s] {
		*r = FinishReasonUnknown
		return nil
	}
	*r = FinishReason(s)
	return nil
}

// Normal reports whether the reason indicates an ordinary end of output.
func (r FinishReason) Normal() bool {
	return r == "" || r == FinishReasonStop || r == FinishReasonMaxTokens
}

// BlockReason explains why a prompt was rejected before generation.
type BlockReason string

const (
	BlockReasonUnspecified BlockReason = "BLOCK_REASON_UNSPECIFIED"
	BlockReasonSafety      BlockReason = "SAFETY"
	BlockReasonOther       BlockReason = "OTHER"
	BlockReasonUnknown     BlockReason = "UNKNOWN"
)

var knownBlockReasons = map[string]bool{
	string(BlockReasonUnspecified): true,
	string(BlockReasonSafety):      true,
	string(BlockReasonOther):       true,
}

// UnmarshalJSON maps unrecognized wire values to BlockReasonUnknown.
func (r *BlockReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" && !knownBlockReasons[s] {
		*r = BlockReasonUnknown
		return nil
	}
	*r = BlockReason(s)
	return nil
}

// Set reports whether the block reason carries a meaningful value.
func (r BlockReason) Set() bool {
	return r != "" && r != BlockReasonUnspecified
}

// HarmCategory identifies the class of content a safety rating covers.
type HarmCategory string

const (
	HarmCategoryUnspecified      HarmCategory = "HARM_CATEGORY_UNSPECIFIED"
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmCategoryUnknown          HarmCategory = "UNKNOWN"
)

var knownHarmCategories = map[string]bool{
	string(HarmCategoryUnspecified):      true,
	string(HarmCategoryHarassment):       true,
	string(HarmCategoryHateSpeech):       true,
	string(HarmCategorySexuallyExplicit): true,
	string(HarmCategoryDangerousContent): true,
}

// UnmarshalJSON maps unrecognized wire values to HarmCategoryUnknown.
func (c *HarmCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" && !knownHarmCategories[s] {
		*c = HarmCategoryUnknown
		return nil
	}
	*c = HarmCategory(s)
	return nil
}

// HarmProbability grades how likely content falls into a harm category.
type HarmProbability string

const (
	HarmProbabilityUnspecified HarmProbability = "HARM_PROBABILITY_UNSPECIFIED"
	HarmProbabilityNegligible  HarmProbability = "NEGLIGIBLE"
	HarmProbabilityLow         HarmProbability = "LOW"
	HarmProbabilityMedium      HarmProbability = "MEDIUM"
	HarmProbabilityHigh        HarmProbability = "HIGH"
	HarmProbabilityUnknown     HarmProbability = "UNKNOWN"
)

var knownHarmProbabilities = map[string]bool{
	string(HarmProbabilityUnspecified): true,
	string(HarmProbabilityNegligible):  true,
	string(HarmProbabilityLow):         true,
	string(HarmProbabilityMedium):      true,
	string(HarmProbabilityHigh):        true,
}

// UnmarshalJSON maps unrecognized wire values to HarmProbabilityUnknown.
func (p *HarmProbability) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != "" && !knownHarmProbabilities[s] {
		*p = HarmProbabilityUnknown
		return nil
	}
	*p = HarmProbability(s)
	return nil
}

// HarmBlockThreshold configures when a harm category should block output.
// Request-only, so no lenient decoding is needed.
type HarmBlockThreshold string

const (
	HarmBlockThresholdUnspecified HarmBlockThreshold = "HARM_BLOCK_THRESHOLD_UNSPECIFIED"
	HarmBlockLowAndAbove          HarmBlockThreshold = "BLOCK_LOW_AND_ABOVE"
	HarmBlockMediumAndAbove       HarmBlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	HarmBlockOnlyHigh             HarmBlockThreshold = "BLOCK_ONLY_HIGH"
	HarmBlockNone                 HarmBlockThreshold = "BLOCK_NONE"
)

// SafetyRating reports the model's harm assessment for one category.
type SafetyRating struct {
	Category    HarmCategory    `json:"category"`
	Probability HarmProbability `json:"probability"`
	Blocked     bool            `json:"blocked,omitempty"`
}

// SafetySetting adjusts the blocking threshold for one harm category.
type SafetySetting struct {
	Category  HarmCategory       `json:"category"`
	Threshold HarmBlockThreshold `json:"threshold"`
}

// CitationSource attributes a span of the output to source material.
type CitationSource struct {
	StartIndex int    `json:"startIndex,omitempty"`
	EndIndex   int    `json:"endIndex,omitempty"`
	URI        string `json:"uri,omitempty"`
	License    string `json:"license,omitempty"`
}

// CitationMetadata collects the citations for a candidate.
type CitationMetadata struct {
	CitationSources []CitationSource `json:"citationSources,omitempty"`
}

// Candidate is one generated response alternative.
type Candidate struct {
	Content          Content           `json:"content"`
	FinishReason     FinishReason      `json:"finishReason,omitempty"`
	Index            int               `json:"index,omitempty"`
	SafetyRatings    []SafetyRating    `json:"safetyRatings,omitempty"`
	CitationMetadata *CitationMetadata `json:"citationMetadata,omitempty"`
}

// PromptFeedback reports safety screening applied to the prompt itself.
type PromptFeedback struct {
	BlockReason   BlockReason    `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// UsageMetadata tracks token consumption for a request.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// GenerationConfig tunes sampling and output shape. Pointer fields are
// omitted from the wire when nil so server defaults apply.
type GenerationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"topP,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	CandidateCount   *int     `json:"candidateCount,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

// FunctionDeclaration describes a function the model may call.
// Parameters holds an OpenAPI-style schema object and is passed through
// verbatim (no reformatting).
type FunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Tool bundles function declarations offered to the model.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// GenerateContentRequest is a request to generate model output.
type GenerateContentRequest struct {
	Model             ModelID           `json:"-"`
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateContentResponse is the model's reply to a generate request.
// In streaming mode each decoded frame is one of these.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
}

// Text returns the concatenated text parts of the first candidate,
// or the empty string when there is none.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Content.JoinText()
}

// FunctionCalls returns the function call parts of the first candidate.
func (r *GenerateContentResponse) FunctionCalls() []FunctionCall {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	var calls []FunctionCall
	for _, p := range r.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// CountTokensRequest asks the model to tokenize the given contents.
type CountTokensRequest struct {
	Model    ModelID   `json:"-"`
	Contents []Content `json:"contents"`
}

// CountTokensResponse reports the token count of the submitted contents.
type CountTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}
