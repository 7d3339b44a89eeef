package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is allow-all for this service
	},
}

// Message is the typed JSON frame exchanged over the websocket endpoint.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendMessage(conn, "error", "Invalid message format.")
			continue
		}
		if msg.Type != "question" && msg.Type != "" {
			continue
		}

		s.answerOverWS(ctx, conn, msg.Content)
	}
}

func (s *Server) answerOverWS(ctx context.Context, conn *websocket.Conn, question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		s.sendMessage(conn, "error", "Question is required.")
		return
	}
	if len(question) > s.config.MaxQuestionLen {
		s.sendMessage(conn, "error", "Question is too long.")
		return
	}

	stream, matches, err := s.assistant.AnswerStream(ctx, question)
	if err != nil {
		s.sendMessage(conn, "error", err.Error())
		return
	}

	if err := conn.WriteJSON(Message{Type: "matches", Data: matches}); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
		return
	}

	for fragment := range stream.Fragments() {
		s.sendMessage(conn, "stream", fragment)
	}
	if err := stream.Err(); err != nil {
		s.sendMessage(conn, "error", err.Error())
	}
	s.sendMessage(conn, "done", "")
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType, content string) {
	if err := conn.WriteJSON(Message{Type: msgType, Content: content}); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
	}
}
