package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
)

// ErrFormat reports a missing or structurally invalid corpus file. It is
// fatal at load time; the service does not start on a bad dataset.
var ErrFormat = errors.New("corpus: malformed dataset")

// Section is one entry of the static documentation dataset.
type Section struct {
	ID         interface{}   `json:"id"`
	Title      string        `json:"title"`
	Text       string        `json:"text"`
	CodeBlocks []string      `json:"code_blocks"`
	Tables     []interface{} `json:"tables"`
	Source     string        `json:"source"`
}

type dataset struct {
	ContentSections []Section `json:"content_sections"`
}

// Load reads the dataset at path and returns its documents in file order,
// plus a content hash of the raw file for staleness detection. IDs are
// position-derived so re-indexing the same file is reproducible.
func Load(path string) ([]models.Document, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", ErrFormat, path, err)
	}

	var ds dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, "", fmt.Errorf("%w: parsing %s: %v", ErrFormat, path, err)
	}
	if len(ds.ContentSections) == 0 {
		return nil, "", fmt.Errorf("%w: no content_sections in %s", ErrFormat, path)
	}

	docs := make([]models.Document, 0, len(ds.ContentSections))
	for idx, sec := range ds.ContentSections {
		docs = append(docs, sectionToDocument(sec, idx))
	}

	sum := sha256.Sum256(raw)
	return docs, hex.EncodeToString(sum[:16]), nil
}

func sectionToDocument(sec Section, position int) models.Document {
	code := strings.Join(sec.CodeBlocks, "\n")
	tables := marshalOrEmpty(sec.Tables)

	var content strings.Builder
	content.WriteString(sec.Title)
	content.WriteString("\n")
	content.WriteString(sec.Text)
	if code != "" {
		content.WriteString("\n")
		content.WriteString(code)
	}
	if tables != "[]" {
		content.WriteString("\n")
		content.WriteString(tables)
	}

	return models.Document{
		ID:       fmt.Sprintf("doc_%d", position),
		Title:    sec.Title,
		Source:   sec.Source,
		Content:  content.String(),
		Position: position,
		Metadata: map[string]interface{}{
			"section_id":  fmt.Sprint(sec.ID),
			"title":       sec.Title,
			"source":      sec.Source,
			"code_blocks": marshalOrEmpty(sec.CodeBlocks),
			"tables":      tables,
		},
	}
}

func marshalOrEmpty(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}
