package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/store"
)

// Requires a running Postgres with the pgvector extension.
func getTestStore(t *testing.T) *store.VectorStore {
	t.Helper()
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set, skipping pgvector integration test")
	}

	s, err := store.NewWithConfig(context.Background(), store.VectorStoreConfig{
		ConnString: connString,
		TableName:  "test_documents",
		VectorDim:  3,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Reset(context.Background())
		s.Close()
	})
	return s
}

func TestVectorStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := getTestStore(t)
	require.NoError(t, s.Reset(ctx))

	docs := []models.EmbeddedDocument{
		{
			Document: models.Document{
				ID:       "doc_0",
				Title:    "Create Ticket",
				Source:   "https://example.com/#create_ticket",
				Content:  "Create Ticket. Send a POST request.",
				Position: 0,
				Metadata: map[string]interface{}{"section_id": "1"},
			},
			Embedding: []float32{1, 0, 0},
		},
		{
			Document: models.Document{
				ID:       "doc_1",
				Title:    "Search Tickets",
				Content:  "Search for tickets.",
				Position: 1,
			},
			Embedding: []float32{0, 1, 0},
		},
	}
	require.NoError(t, s.Upsert(ctx, docs))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	matches, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc_0", matches[0].ID)
	assert.Equal(t, "Create Ticket", matches[0].Title)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestVectorStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := getTestStore(t)
	require.NoError(t, s.Reset(ctx))

	doc := models.EmbeddedDocument{
		Document:  models.Document{ID: "doc_0", Title: "First", Position: 0},
		Embedding: []float32{1, 0, 0},
	}
	require.NoError(t, s.Upsert(ctx, []models.EmbeddedDocument{doc}))

	doc.Title = "Updated"
	require.NoError(t, s.Upsert(ctx, []models.EmbeddedDocument{doc}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Updated", matches[0].Title)
}

func TestVectorStoreMeta(t *testing.T) {
	ctx := context.Background()
	s := getTestStore(t)
	require.NoError(t, s.Reset(ctx))

	value, err := s.Meta(ctx, "embedder_model")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, s.SetMeta(ctx, "embedder_model", "nomic-embed-text:latest"))
	require.NoError(t, s.SetMeta(ctx, "embedder_model", "other"))

	value, err = s.Meta(ctx, "embedder_model")
	require.NoError(t, err)
	assert.Equal(t, "other", value)
}
