package types

import (
	"context"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
)

// Embedder converts texts into fixed-length vectors. The same embedder must
// be used at index time and query time; Model() identifies it so the index
// can reject a mismatched retriever at startup.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// VectorIndex is the persistent store of documents and their embeddings.
// It is initialized once at startup and read concurrently afterwards;
// Reset and Upsert are only called during an explicit rebuild.
type VectorIndex interface {
	// Reset discards all stored documents and metadata.
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, docs []models.EmbeddedDocument) error
	// Search returns up to k matches ordered by descending similarity,
	// ties broken by corpus insertion position.
	Search(ctx context.Context, embedding []float32, k int) ([]models.Match, error)
	Count(ctx context.Context) (int, error)
	// Meta returns the stored value for key, or "" when unset.
	Meta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
	Close()
}
