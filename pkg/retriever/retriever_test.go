package retriever_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/retriever"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/store"
)

// axisEmbedder maps known words onto one axis each, so similarity is
// predictable in tests.
type axisEmbedder struct {
	failEmbed bool
}

var axisVocab = []string{"create", "update", "search"}

func (e *axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.failEmbed {
		return nil, errors.New("embedding backend unreachable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(axisVocab)+1)
		vec[len(axisVocab)] = 0.1
		for j, word := range axisVocab {
			if containsWord(text, word) {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *axisEmbedder) Model() string { return "axis-embedder" }

func containsWord(text, word string) bool {
	for i := 0; i+len(word) <= len(text); i++ {
		if text[i:i+len(word)] == word {
			return true
		}
	}
	return false
}

func seedIndex(t *testing.T, idx *store.MemoryIndex, contents ...string) {
	t.Helper()
	emb := &axisEmbedder{}
	vectors, err := emb.Embed(context.Background(), contents)
	require.NoError(t, err)

	docs := make([]models.EmbeddedDocument, len(contents))
	for i, content := range contents {
		docs[i] = models.EmbeddedDocument{
			Document:  models.Document{ID: fmt.Sprintf("doc_%d", i), Content: content, Position: i},
			Embedding: vectors[i],
		}
	}
	require.NoError(t, idx.Upsert(context.Background(), docs))
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex()
	seedIndex(t, idx,
		"create a ticket",
		"update a requester",
		"search tickets",
	)

	r := retriever.New(&axisEmbedder{}, idx, retriever.Config{TopK: 3})
	matches, err := r.Retrieve(ctx, "how do I create something?", 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "doc_0", matches[0].ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRetrieveHonorsK(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex()
	seedIndex(t, idx, "create", "update", "search")

	r := retriever.New(&axisEmbedder{}, idx, retriever.Config{TopK: 3})

	matches, err := r.Retrieve(ctx, "update", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	// k larger than the index yields everything, not an error.
	matches, err = r.Retrieve(ctx, "update", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := retriever.New(&axisEmbedder{}, store.NewMemoryIndex(), retriever.Config{})

	matches, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	idx := store.NewMemoryIndex()
	seedIndex(t, idx, "create")

	r := retriever.New(&axisEmbedder{failEmbed: true}, idx, retriever.Config{})

	_, err := r.Retrieve(context.Background(), "create", 1)
	assert.ErrorIs(t, err, retriever.ErrRetrieval)
}
