package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/codelinechef/AI-Query-ChatBot/pkg/llm"
)

// stubModel returns a fixed answer. When streaming is requested it delivers
// the answer in fixed-size chunks, optionally failing after failAfter chunks.
type stubModel struct {
	answer    string
	chunkSize int
	failAfter int // 0 means never fail
	calls     int
	lastMsgs  []llms.MessageContent
}

func (m *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.lastMsgs = messages

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	if opts.StreamingFunc != nil {
		size := m.chunkSize
		if size <= 0 {
			size = 4
		}
		sent := 0
		for start := 0; start < len(m.answer); start += size {
			if m.failAfter > 0 && sent == m.failAfter {
				return nil, errors.New("connection reset mid-stream")
			}
			end := start + size
			if end > len(m.answer) {
				end = len(m.answer)
			}
			if err := opts.StreamingFunc(ctx, []byte(m.answer[start:end])); err != nil {
				return nil, err
			}
			sent++
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.answer}},
	}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.answer, nil
}

func collect(t *testing.T, s *llm.Stream) ([]string, error) {
	t.Helper()
	var fragments []string
	for fragment := range s.Fragments() {
		fragments = append(fragments, fragment)
	}
	return fragments, s.Err()
}

func TestGenerate(t *testing.T) {
	model := &stubModel{answer: "Use POST /api/v2/tickets."}
	engine, err := llm.NewWithModel(llm.ChatConfig{}, model)
	require.NoError(t, err)

	answer, err := engine.Generate(context.Background(), "how do I create a ticket?")
	require.NoError(t, err)
	assert.Equal(t, "Use POST /api/v2/tickets.", answer)
	assert.Equal(t, 1, model.calls)
}

func TestGenerateSendsSystemAndUserMessages(t *testing.T) {
	model := &stubModel{answer: "ok"}
	engine, err := llm.NewWithModel(llm.ChatConfig{SystemTemplate: "You answer tersely."}, model)
	require.NoError(t, err)

	_, err = engine.Generate(context.Background(), "the question")
	require.NoError(t, err)

	require.Len(t, model.lastMsgs, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.lastMsgs[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.lastMsgs[1].Role)
}

func TestGenerateEmptyAnswerIsNotAnError(t *testing.T) {
	engine, err := llm.NewWithModel(llm.ChatConfig{}, &stubModel{answer: ""})
	require.NoError(t, err)

	answer, err := engine.Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, answer)
}

func TestStreamMatchesBlockingAnswer(t *testing.T) {
	answer := "The endpoint is POST /api/v2/tickets with email and subject fields."
	model := &stubModel{answer: answer, chunkSize: 7}
	engine, err := llm.NewWithModel(llm.ChatConfig{}, model)
	require.NoError(t, err)

	blocking, err := engine.Generate(context.Background(), "q")
	require.NoError(t, err)

	stream, err := engine.GenerateStream(context.Background(), "q")
	require.NoError(t, err)
	fragments, streamErr := collect(t, stream)
	require.NoError(t, streamErr)

	assert.Equal(t, blocking, strings.Join(fragments, ""))
	assert.Greater(t, len(fragments), 1)
}

func TestStreamFailureKeepsDeliveredFragments(t *testing.T) {
	model := &stubModel{answer: "abcdefghijklmnop", chunkSize: 4, failAfter: 2}
	engine, err := llm.NewWithModel(llm.ChatConfig{}, model)
	require.NoError(t, err)

	stream, err := engine.GenerateStream(context.Background(), "q")
	require.NoError(t, err)

	fragments, streamErr := collect(t, stream)
	assert.Equal(t, []string{"abcd", "efgh"}, fragments)
	assert.ErrorIs(t, streamErr, llm.ErrGeneration)
}

func TestStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &stubModel{answer: strings.Repeat("x", 1000), chunkSize: 1}
	engine, err := llm.NewWithModel(llm.ChatConfig{}, model)
	require.NoError(t, err)

	stream, err := engine.GenerateStream(ctx, "q")
	require.NoError(t, err)

	// Drain without reading: the channel must still close.
	for range stream.Fragments() {
	}
	assert.Error(t, stream.Err())
}

func TestChatConfigValidation(t *testing.T) {
	_, err := llm.NewWithModel(llm.ChatConfig{Temperature: 1.5}, &stubModel{})
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.ChatConfig{Temperature: -0.1}, &stubModel{})
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.ChatConfig{MaxTokens: -1}, &stubModel{})
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.ChatConfig{Temperature: 0.7, MaxTokens: 100}, &stubModel{})
	assert.NoError(t, err)
}
