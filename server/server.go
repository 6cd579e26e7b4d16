// Package server exposes the assistant over HTTP: a farmer-facing POST /chat
// endpoint plus a health probe.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
	"github.com/KrishimitraAgent/KrishimitraBackend/runner"
)

// ChatRequest is the farmer-facing request body. Image is optional base64
// content; ImageMimeType must accompany it.
type ChatRequest struct {
	InputMessage  string `json:"input_message"`
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	Image         string `json:"image,omitempty"`
	ImageMimeType string `json:"image_mime_type,omitempty"`
}

// ChatResponse is the success body.
type ChatResponse struct {
	TurnID   string            `json:"turn_id"`
	Status   string            `json:"status"`
	Response string            `json:"response,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// errorResponse is the non-2xx body: a short error plus the machine-readable
// turn condition.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Server wires the runner to HTTP handlers.
type Server struct {
	runner *runner.Runner
	logger logging.Logger
	http   *http.Server
}

// New creates a Server listening on addr.
func New(addr string, r *runner.Runner, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Server{runner: r, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server.listen", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "validation_error")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "validation_error")
		return
	}

	content, err := buildContent(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	start := time.Now()
	result, err := s.runner.RunTurn(r.Context(), req.UserID, req.SessionID, content)
	if err != nil {
		s.logger.Error("server.chat.dispatch_failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to start turn", string(core.ConditionOf(err)))
		return
	}

	s.logger.Info("server.chat.turn_done",
		"turn", result.TurnID,
		"user", req.UserID,
		"session", req.SessionID,
		"status", string(result.Status),
		"duration_ms", time.Since(start).Milliseconds())

	if result.Status == runner.StatusAborted {
		writeError(w, statusForCondition(result.Condition), "the assistant could not complete this turn", string(result.Condition))
		return
	}

	text := result.FinalText
	if result.Status == runner.StatusTerminated && text == "" {
		text = terminatedAck(result.Metadata)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		TurnID:   result.TurnID,
		Status:   string(result.Status),
		Response: text,
		Metadata: result.Metadata,
	})
}

// buildContent validates the request and assembles the turn input, decoding
// the optional photo attachment.
func buildContent(req ChatRequest) (core.Content, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return core.Content{}, fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return core.Content{}, fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(req.InputMessage) == "" && req.Image == "" {
		return core.Content{}, fmt.Errorf("input_message or image is required")
	}

	parts := []core.Part{}
	if req.InputMessage != "" {
		parts = append(parts, core.TextPart{Text: req.InputMessage})
	}
	if req.Image != "" {
		if req.ImageMimeType == "" {
			return core.Content{}, fmt.Errorf("image_mime_type is required with image")
		}
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return core.Content{}, fmt.Errorf("image is not valid base64")
		}
		parts = append(parts, core.FilePart{File: core.FileRef{
			Bytes:    data,
			MimeType: req.ImageMimeType,
			Name:     "upload",
		}})
	}

	return core.Content{Role: "user", Parts: parts}, nil
}

// terminatedAck builds the reply for turns halted by an effectful-once tool,
// which produce no assistant text of their own.
func terminatedAck(metadata map[string]string) string {
	if docID := metadata["doc_id"]; docID != "" {
		return fmt.Sprintf("Your crop analysis has been saved (reference %s).", docID)
	}
	return "Your request has been recorded."
}

func statusForCondition(cond core.Condition) int {
	switch cond {
	case core.ConditionValidation:
		return http.StatusBadRequest
	case core.ConditionTimeout:
		return http.StatusGatewayTimeout
	case core.ConditionPersistenceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, errorResponse{Error: msg, Reason: reason})
}
