package core

import "context"

// TaskType hints how an embedding will be used so the model can
// optimize the vector for that use.
type TaskType string

const (
	TaskTypeUnspecified        TaskType = "TASK_TYPE_UNSPECIFIED"
	TaskTypeRetrievalQuery     TaskType = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument  TaskType = "RETRIEVAL_DOCUMENT"
	TaskTypeSemanticSimilarity TaskType = "SEMANTIC_SIMILARITY"
	TaskTypeClassification     TaskType = "CLASSIFICATION"
	TaskTypeClustering         TaskType = "CLUSTERING"
)

// EmbedContentRequest asks the model to embed a single content.
// Title is only honored when TaskType is TaskTypeRetrievalDocument.
type EmbedContentRequest struct {
	Model    ModelID  `json:"-"`
	Content  Content  `json:"content"`
	TaskType TaskType `json:"taskType,omitempty"`
	Title    string   `json:"title,omitempty"`
}

// Embedding is a single embedding vector.
type Embedding struct {
	Values []float32 `json:"values"`
}

// EmbedContentResponse carries the vector for one embedded content.
type EmbedContentResponse struct {
	Embedding Embedding `json:"embedding"`
}

// BatchEmbedContentsRequest embeds several contents in one call.
// Every request in the batch must name the same model.
type BatchEmbedContentsRequest struct {
	Model    ModelID               `json:"-"`
	Requests []EmbedContentRequest `json:"requests"`
}

// BatchEmbedContentsResponse carries one vector per batched request,
// in request order.
type BatchEmbedContentsResponse struct {
	Embeddings []Embedding `json:"embeddings"`
}

// Embedder is an optional interface for providers that support embeddings.
type Embedder interface {
	// EmbedContent generates an embedding for a single content.
	EmbedContent(ctx context.Context, req *EmbedContentRequest) (*EmbedContentResponse, error)
	// BatchEmbedContents generates embeddings for several contents at once.
	BatchEmbedContents(ctx context.Context, req *BatchEmbedContentsRequest) (*BatchEmbedContentsResponse, error)
}
