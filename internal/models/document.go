package models

// Document is one retrievable unit of documentation text. IDs are derived
// from corpus position, so the same dataset always produces the same IDs.
type Document struct {
	ID       string
	Title    string
	Source   string
	Content  string
	Position int
	Metadata map[string]interface{}
}

// EmbeddedDocument pairs a document with its vector. A changed document gets
// re-embedded and upserted, never patched in place.
type EmbeddedDocument struct {
	Document
	Embedding []float32
}

// Match is a retrieved document with its similarity score (higher is better).
type Match struct {
	Document
	Score float32
}
