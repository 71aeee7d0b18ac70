package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/services"
)

type UserHandler struct {
	users *services.UserService
	log   *zap.SugaredLogger
}

func NewUserHandler(users *services.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "profile": user})
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.users.Stats(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "stats": st})
}
