package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/assistant"
	"github.com/codelinechef/AI-Query-ChatBot/pkg/llm"
)

// Answerer is the pipeline contract the HTTP boundary depends on.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.Answer, error)
	AnswerStream(ctx context.Context, question string) (*llm.Stream, []models.MatchDetail, error)
}

type Config struct {
	Host           string
	Port           int
	StaticDir      string
	RateLimit      float64 // requests per second per client IP
	RateBurst      int
	MaxQuestionLen int
}

// Server adapts the answer pipeline to HTTP: JSON request/response for the
// blocking path, SSE and websocket framing for the streaming one.
type Server struct {
	config     Config
	assistant  Answerer
	logger     *zap.Logger
	limiters   *ipLimiters
	httpServer *http.Server
}

func New(a Answerer, config Config, logger *zap.Logger) *Server {
	if config.MaxQuestionLen == 0 {
		config.MaxQuestionLen = 2000
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:    config,
		assistant: a,
		logger:    logger,
		limiters:  newIPLimiters(config.RateLimit, config.RateBurst),
	}
}

// Router builds the HTTP routes. Exposed separately from Start for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Post("/api/query", s.handleQuery)
	r.Post("/api/chat", s.handleQuery)
	r.Post("/api/chat/stream", s.handleChatStream)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	return r
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) readQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "Question is required.")
		return "", false
	}
	if len(question) > s.config.MaxQuestionLen {
		writeError(w, http.StatusBadRequest, "Question is too long.")
		return "", false
	}
	return question, true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	question, ok := s.readQuestion(w, r)
	if !ok {
		return
	}

	answer, err := s.assistant.Answer(r.Context(), question)
	if err != nil {
		s.writeAnswerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	question, ok := s.readQuestion(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported.")
		return
	}

	stream, _, err := s.assistant.AnswerStream(r.Context(), question)
	if err != nil {
		s.writeAnswerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The request context cancels the model call when the client goes
	// away, so an abandoned stream releases its backend resources.
	for fragment := range stream.Fragments() {
		writeSSE(w, "", fragment)
		flusher.Flush()
	}
	if err := stream.Err(); err != nil {
		s.logger.Error("stream ended with error", zap.Error(err))
		writeSSE(w, "error", err.Error())
		flusher.Flush()
	}
	writeSSE(w, "", "[DONE]")
	flusher.Flush()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) writeAnswerError(w http.ResponseWriter, err error) {
	if errors.Is(err, assistant.ErrUnsafeInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
