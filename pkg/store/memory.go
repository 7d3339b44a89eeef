package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
)

// MemoryIndex is an in-process index with the same contract as the pgvector
// store. It backs the service when no database is configured, and tests.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs []models.EmbeddedDocument
	byID map[string]int
	meta map[string]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]int),
		meta: make(map[string]string),
	}
}

func (m *MemoryIndex) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	m.byID = make(map[string]int)
	m.meta = make(map[string]string)
	return nil
}

func (m *MemoryIndex) Upsert(_ context.Context, docs []models.EmbeddedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		if i, ok := m.byID[doc.ID]; ok {
			m.docs[i] = doc
			continue
		}
		m.byID[doc.ID] = len(m.docs)
		m.docs = append(m.docs, doc)
	}
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, embedding []float32, k int) ([]models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]models.Match, 0, len(m.docs))
	for _, doc := range m.docs {
		matches = append(matches, models.Match{
			Document: doc.Document,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Position < matches[j].Position
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

func (m *MemoryIndex) Meta(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta[key], nil
}

func (m *MemoryIndex) SetMeta(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
	return nil
}

func (m *MemoryIndex) Close() {}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
