package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// ErrGeneration reports a model backend failure (timeout, quota, malformed
// response). An empty answer is not a generation error.
var ErrGeneration = errors.New("llm: generation failed")

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
}

// Engine generates answers from composed prompts, either blocking or as an
// incremental stream. Both modes issue the same underlying model call.
type Engine struct {
	config ChatConfig
	model  llms.Model
}

// NewWithConfig creates an Engine backed by an Ollama model.
func NewWithConfig(config ChatConfig) (*Engine, error) {
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Engine{config: config, model: model}, nil
}

// NewWithModel creates an Engine on an already-constructed model.
func NewWithModel(config ChatConfig, model llms.Model) (*Engine, error) {
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}
	return &Engine{config: config, model: model}, nil
}

func applyChatDefaults(config *ChatConfig) error {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a professional API assistant for helpdesk developers. " +
			"Answer the question clearly using only the provided documentation context. " +
			"Explain the endpoint, required payload, response format, and example where relevant. " +
			"Avoid markdown syntax like ### or ``` in the answer."
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	return nil
}

func (e *Engine) messages(prompt string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, e.config.SystemTemplate),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
}

// Generate sends the prompt and blocks for the complete answer.
func (e *Engine) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := e.model.GenerateContent(ctx, e.messages(prompt),
		llms.WithMaxTokens(e.config.MaxTokens),
		llms.WithTemperature(e.config.Temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in model response", ErrGeneration)
	}
	return resp.Choices[0].Content, nil
}

// GenerateStream sends the prompt and returns a stream of answer fragments.
// Fragments arrive in generation order; the channel closes at end of stream
// and Err reports any backend failure afterwards. Fragments already
// delivered are never retracted. Cancelling ctx stops the model call.
func (e *Engine) GenerateStream(ctx context.Context, prompt string) (*Stream, error) {
	s := newStream()

	go func() {
		defer s.finish()
		_, err := e.model.GenerateContent(ctx, e.messages(prompt),
			llms.WithMaxTokens(e.config.MaxTokens),
			llms.WithTemperature(e.config.Temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				return s.send(ctx, string(chunk))
			}))
		if err != nil {
			s.fail(fmt.Errorf("%w: %v", ErrGeneration, err))
		}
	}()

	return s, nil
}
