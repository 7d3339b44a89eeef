package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
	"github.com/codelinechef/AI-Query-ChatBot/internal/types"
)

// ErrRetrieval reports an embedding or index backend failure during a
// query. "No good match" is not a failure; that is an empty result.
var ErrRetrieval = errors.New("retriever: search failed")

type Config struct {
	TopK int
}

// Retriever finds the documents most similar to a question, using the same
// embedder the index was built with.
type Retriever struct {
	config   Config
	embedder types.Embedder
	index    types.VectorIndex
}

func New(embedder types.Embedder, index types.VectorIndex, config Config) *Retriever {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	return &Retriever{
		config:   config,
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns up to k matches ordered by descending similarity. An
// empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]models.Match, error) {
	if k <= 0 {
		k = r.config.TopK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %v", ErrRetrieval, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector", ErrRetrieval)
	}

	matches, err := r.index.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	return matches, nil
}
