package assistant

import (
	"context"

	"go.uber.org/zap"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/corpus"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/llm"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/prompt"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/retriever"
)

const snippetLen = 300

type Config struct {
	TopK int
}

// Assistant runs the retrieval → compose → generate pipeline for one
// question per call. All per-request state is request-scoped; the only
// shared dependency is the read-mostly index behind the retriever.
type Assistant struct {
	config    Config
	retriever *retriever.Retriever
	composer  prompt.Composer
	engine    *llm.Engine
	logger    *zap.Logger
}

func New(r *retriever.Retriever, c prompt.Composer, e *llm.Engine, logger *zap.Logger, config Config) *Assistant {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		config:    config,
		retriever: r,
		composer:  c,
		engine:    e,
		logger:    logger,
	}
}

// Answer runs the full pipeline and blocks for the complete answer.
func (a *Assistant) Answer(ctx context.Context, question string) (*models.Answer, error) {
	question, matches, composed, err := a.prepare(ctx, question)
	if err != nil {
		return nil, err
	}

	raw, err := a.engine.Generate(ctx, composed)
	if err != nil {
		a.logger.Error("generation failed", zap.Error(err))
		return nil, err
	}

	return &models.Answer{
		Answer:  CleanAnswer(raw),
		Matches: matchDetails(matches),
	}, nil
}

// AnswerStream runs the same pipeline but returns the answer as a fragment
// stream, plus the matches retrieved for the question. Cancelling ctx stops
// the underlying model call.
func (a *Assistant) AnswerStream(ctx context.Context, question string) (*llm.Stream, []models.MatchDetail, error) {
	question, matches, composed, err := a.prepare(ctx, question)
	if err != nil {
		return nil, nil, err
	}

	stream, err := a.engine.GenerateStream(ctx, composed)
	if err != nil {
		return nil, nil, err
	}
	return stream, matchDetails(matches), nil
}

func (a *Assistant) prepare(ctx context.Context, question string) (string, []models.Match, string, error) {
	question, err := SanitizeQuestion(question)
	if err != nil {
		a.logger.Warn("rejected question", zap.Error(err))
		return "", nil, "", err
	}

	matches, err := a.retriever.Retrieve(ctx, question, a.config.TopK)
	if err != nil {
		a.logger.Error("retrieval failed", zap.Error(err))
		return "", nil, "", err
	}
	a.logger.Info("retrieved context",
		zap.String("question", question),
		zap.Int("matches", len(matches)))

	return question, matches, a.composer.Compose(question, matches), nil
}

func matchDetails(matches []models.Match) []models.MatchDetail {
	details := make([]models.MatchDetail, len(matches))
	for i, m := range matches {
		api := corpus.ExtractAPIInfo(m.Document)
		details[i] = models.MatchDetail{
			ID:      m.ID,
			Title:   m.Title,
			Snippet: snippet(m.Content),
			Score:   m.Score,
			API:     &api,
		}
	}
	return details
}

func snippet(content string) string {
	if len(content) <= snippetLen {
		return content
	}
	cut := snippetLen
	for cut > 0 && content[cut]&0xC0 == 0x80 {
		cut--
	}
	return content[:cut] + "…"
}
