package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/services"
)

type AuthHandler struct {
	users *services.UserService
	log   *zap.SugaredLogger
}

func NewAuthHandler(users *services.UserService, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

type registerRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FullName     string  `json:"full_name"`
	Organization *string `json:"organization"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Organization: req.Organization,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{"success": true, "token": res.Token, "user": res.User})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "token": res.Token, "user": res.User})
}

// Me returns the user named by the bearer token. A token for a deleted user is rejected.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			err = services.ErrUnauthorized
		}
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "user": user})
}
