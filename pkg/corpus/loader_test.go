package corpus_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelinechef/AI-Query-ChatBot/pkg/corpus"
)

const sampleDataset = `{
  "content_sections": [
    {
      "id": 1,
      "title": "Create Ticket",
      "text": "Send a POST request to /api/v2/tickets.",
      "code_blocks": ["POST {\"email\": \"a@b.c\"}"],
      "tables": [],
      "source": "https://example.com/#create_ticket"
    },
    {
      "id": "sec-2",
      "title": "Search Tickets",
      "text": "Send a GET request to /api/v2/tickets/filter.",
      "code_blocks": [],
      "tables": [],
      "source": "https://example.com/#filter_tickets"
    }
  ]
}`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickets_static.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeDataset(t, sampleDataset)

	docs, hash, err := corpus.Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.NotEmpty(t, hash)

	assert.Equal(t, "doc_0", docs[0].ID)
	assert.Equal(t, "doc_1", docs[1].ID)
	assert.Equal(t, "Create Ticket", docs[0].Title)
	assert.Equal(t, 0, docs[0].Position)
	assert.Equal(t, 1, docs[1].Position)
	assert.Contains(t, docs[0].Content, "Create Ticket")
	assert.Contains(t, docs[0].Content, "POST request")
	assert.Contains(t, docs[0].Content, `a@b.c`)
	assert.Equal(t, "https://example.com/#create_ticket", docs[0].Source)
	assert.Equal(t, "1", docs[0].Metadata["section_id"])
	assert.Equal(t, "sec-2", docs[1].Metadata["section_id"])
}

func TestLoadIsDeterministic(t *testing.T) {
	path := writeDataset(t, sampleDataset)

	first, firstHash, err := corpus.Load(path)
	require.NoError(t, err)
	second, secondHash, err := corpus.Load(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstHash, secondHash)
}

func TestLoadHashChangesWithContent(t *testing.T) {
	path := writeDataset(t, sampleDataset)
	_, hash1, err := corpus.Load(path)
	require.NoError(t, err)

	changed := writeDataset(t, sampleDataset+"\n")
	_, hash2, err := corpus.Load(changed)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := corpus.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, corpus.ErrFormat)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeDataset(t, "{not json")
	_, _, err := corpus.Load(path)
	assert.ErrorIs(t, err, corpus.ErrFormat)
}

func TestLoadEmptySections(t *testing.T) {
	path := writeDataset(t, `{"content_sections": []}`)
	_, _, err := corpus.Load(path)
	assert.ErrorIs(t, err, corpus.ErrFormat)
}
