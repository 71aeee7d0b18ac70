package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
	log  *zap.SugaredLogger
}

func NewChatHandler(chat *services.ChatService, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

type queryRequest struct {
	Message    string `json:"message"`
	Model      string `json:"model"`
	ModelName  string `json:"model_name"`
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
}

type createSessionRequest struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	ModelName  string `json:"model_name"`
}

// Query runs one chat exchange, creating a session when none is named.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.query(w, r, req)
}

// PostMessage is Query bound to the session in the URL.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SessionID = chi.URLParam(r, "id")
	if req.SessionID == "" {
		respondError(w, http.StatusNotFound, "session not found", "not_found")
		return
	}
	h.query(w, r, req)
}

func (h *ChatHandler) query(w http.ResponseWriter, r *http.Request, req queryRequest) {
	model := req.Model
	if model == "" {
		model = req.ModelName
	}
	res, err := h.chat.Query(r.Context(), userID(r), services.QueryInput{
		SessionID:  req.SessionID,
		Message:    req.Message,
		Model:      model,
		DocumentID: req.DocumentID,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "session_id": res.SessionID, "message": res.Message})
}

func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.chat.CreateSession(r.Context(), userID(r), services.CreateSessionInput{
		DocumentID: req.DocumentID,
		Title:      req.Title,
		ModelName:  req.ModelName,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{"success": true, "session": session})
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "sessions": sessions})
}

func (h *ChatHandler) ArchiveSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.ArchiveSession(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.ListMessages(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "messages": msgs})
}

func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{"success": true, "models": h.chat.Models()})
}
