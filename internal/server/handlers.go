package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleChatMessage runs one conversation turn. Transport-level validation
// failures are 400s; everything past validation is a 200 whose payload type
// tells the client how the turn went.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var in flow.TurnInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeJSON(w, http.StatusBadRequest, flow.ErrorMessage("The message body is not valid JSON."))
		return
	}

	if strings.TrimSpace(in.UserID) == "" {
		s.writeJSON(w, http.StatusBadRequest, flow.ErrorMessage("A turn must carry a user_id."))
		return
	}
	switch in.MessageType {
	case flow.MessageTypeIntent, flow.MessageTypeParameterResponse:
	default:
		s.writeJSON(w, http.StatusBadRequest,
			flow.ErrorMessage(fmt.Sprintf("Unsupported message type %q.", in.MessageType)))
		return
	}
	if in.MessageType == flow.MessageTypeParameterResponse && in.ParameterName == "" {
		s.writeJSON(w, http.StatusBadRequest,
			flow.ErrorMessage("A parameter response must name the parameter it answers."))
		return
	}

	release := s.locks.acquire(in.UserID)
	defer release()

	ctx := r.Context()
	AddLogField(ctx, "user_id", in.UserID)

	st, err := s.store.Load(ctx, in.UserID)
	if err != nil {
		AddError(ctx, err)
		s.writeJSON(w, http.StatusInternalServerError,
			flow.ErrorMessage("The conversation state could not be loaded. Please try again."))
		return
	}
	if st == nil {
		st = flow.NewState(in.UserID)
	}

	payload := s.engine.ProcessTurn(ctx, st, in)

	// Persisted even when the turn failed, so the error context survives.
	if err := s.store.Save(ctx, st); err != nil {
		AddError(ctx, err)
		s.writeJSON(w, http.StatusInternalServerError,
			flow.ErrorMessage("The conversation state could not be saved. Please try again."))
		return
	}

	s.writeJSON(w, http.StatusOK, payload)
}

// handleResetState discards a user's stored conversation.
func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	release := s.locks.acquire(userID)
	defer release()

	if err := s.store.Delete(r.Context(), userID); err != nil {
		AddError(r.Context(), err)
		s.writeJSON(w, http.StatusInternalServerError,
			flow.ErrorMessage("The conversation state could not be reset. Please try again."))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListOperations returns the catalog summary the client builds its
// intent picker from.
func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.List())
}

// handleOperationDetail returns the full parameter description for one
// operation. Path and method arrive as query parameters; endpoint paths
// contain slashes and placeholders, so they cannot ride in the URL path.
func (s *Server) handleOperationDetail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	method := r.URL.Query().Get("method")
	if path == "" || method == "" {
		s.writeJSON(w, http.StatusBadRequest,
			flow.ErrorMessage("Both path and method query parameters are required."))
		return
	}

	info, err := s.catalog.Get(path, method)
	if err != nil {
		if errors.Is(err, openapi.ErrEndpointNotFound) {
			s.writeJSON(w, http.StatusNotFound,
				flow.ErrorMessage(fmt.Sprintf("No operation %s %s exists in the API description.",
					strings.ToUpper(method), path)))
			return
		}
		AddError(r.Context(), err)
		s.writeJSON(w, http.StatusInternalServerError,
			flow.ErrorMessage("The operation could not be resolved."))
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
