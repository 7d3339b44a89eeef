package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
)

const truncationMark = "\n[truncated]"

type ComposerConfig struct {
	// MaxContextChars bounds the total size of the context blocks; the
	// question is always included on top of the budget.
	MaxContextChars int
}

// Composer assembles the model prompt from retrieved matches and the user
// question. Compose is pure: no I/O, no state.
type Composer struct {
	config ComposerConfig
}

func NewComposer(config ComposerConfig) Composer {
	if config.MaxContextChars == 0 {
		config.MaxContextChars = 6000
	}
	return Composer{config: config}
}

// Compose concatenates match texts in retriever order, each labeled with its
// source, within the context budget. When the total would exceed the budget,
// the lowest-scoring tail matches are dropped whole; only a single document
// that alone exceeds the budget gets its text cut, with a marker. The
// literal question always appears unmodified.
func (c Composer) Compose(question string, matches []models.Match) string {
	budget := c.config.MaxContextChars
	var blocks []string
	used := 0

	for _, m := range matches {
		block := contextBlock(m)
		cost := len(block)
		if len(blocks) > 0 {
			cost += 2 // joining blank line
		}
		if used+cost > budget {
			if len(blocks) == 0 {
				blocks = append(blocks, truncate(block, budget))
			}
			break
		}
		blocks = append(blocks, block)
		used += cost
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	if len(blocks) == 0 {
		b.WriteString("(no relevant documentation found)")
	} else {
		b.WriteString(strings.Join(blocks, "\n\n"))
	}
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	return b.String()
}

func contextBlock(m models.Match) string {
	label := m.Title
	if label == "" {
		label = m.ID
	}
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(label)
	if m.Source != "" && m.Source != label {
		b.WriteString(" (")
		b.WriteString(m.Source)
		b.WriteString(")")
	}
	b.WriteString("\n")
	b.WriteString(m.Content)
	return b.String()
}

// truncate cuts s to at most limit bytes on a rune boundary and appends the
// truncation marker, keeping the result within limit.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - len(truncationMark)
	if cut <= 0 {
		return truncationMark[:limit]
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMark
}
