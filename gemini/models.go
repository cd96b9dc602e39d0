// Package gemini provides a Google Gemini API provider implementation for Lumen.
package gemini

import "github.com/lumenlabs/lumen/core"

// Model constants for Google Gemini models.
const (
	// Gemini 1.5 series
	ModelGemini15Pro   core.ModelID = "gemini-1.5-pro-latest"
	ModelGemini15Flash core.ModelID = "gemini-1.5-flash-latest"

	// Gemini 1.0 series
	ModelGeminiPro       core.ModelID = "gemini-pro"
	ModelGeminiProVision core.ModelID = "gemini-pro-vision"

	// Embedding models
	ModelEmbedding001     core.ModelID = "embedding-001"
	ModelTextEmbedding004 core.ModelID = "text-embedding-004"
)

// models is the static list of supported models.
var models = []core.ModelInfo{
	{
		ID:          ModelGemini15Pro,
		DisplayName: "Gemini 1.5 Pro",
		Capabilities: []core.Feature{
			core.FeatureGenerate,
			core.FeatureGenerateStreaming,
			core.FeatureCountTokens,
			core.FeatureFunctionCalling,
			core.FeatureVision,
		},
		InputLimit:  1048576,
		OutputLimit: 8192,
	},
	{
		ID:          ModelGemini15Flash,
		DisplayName: "Gemini 1.5 Flash",
		Capabilities: []core.Feature{
			core.FeatureGenerate,
			core.FeatureGenerateStreaming,
			core.FeatureCountTokens,
			core.FeatureFunctionCalling,
			core.FeatureVision,
		},
		InputLimit:  1048576,
		OutputLimit: 8192,
	},
	{
		ID:          ModelGeminiPro,
		DisplayName: "Gemini Pro",
		Capabilities: []core.Feature{
			core.FeatureGenerate,
			core.FeatureGenerateStreaming,
			core.FeatureCountTokens,
			core.FeatureFunctionCalling,
		},
		InputLimit:  30720,
		OutputLimit: 2048,
	},
	{
		ID:          ModelGeminiProVision,
		DisplayName: "Gemini Pro Vision",
		Capabilities: []core.Feature{
			core.FeatureGenerate,
			core.FeatureGenerateStreaming,
			core.FeatureCountTokens,
			core.FeatureVision,
		},
		InputLimit:  12288,
		OutputLimit: 4096,
	},
	{
		ID:          ModelEmbedding001,
		DisplayName: "Embedding 001",
		Capabilities: []core.Feature{
			core.FeatureEmbeddings,
		},
		InputLimit: 2048,
	},
	{
		ID:          ModelTextEmbedding004,
		DisplayName: "Text Embedding 004",
		Capabilities: []core.Feature{
			core.FeatureEmbeddings,
		},
		InputLimit: 2048,
	},
}

// modelRegistry is a map for quick model lookup by ID.
var modelRegistry = buildModelRegistry()

// buildModelRegistry creates a map from model ID to ModelInfo.
func buildModelRegistry() map[core.ModelID]*core.ModelInfo {
	registry := make(map[core.ModelID]*core.ModelInfo, len(models))
	for i := range models {
		registry[models[i].ID] = &models[i]
	}
	return registry
}

// GetModelInfo returns the ModelInfo for a given model ID, or nil if not found.
func GetModelInfo(id core.ModelID) *core.ModelInfo {
	return modelRegistry[id]
}
