package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/services"
)

// AdminHandler serves the admin dashboard. Routes are gated by RequireRole(admin).
type AdminHandler struct {
	admin *services.AdminService
	log   *zap.SugaredLogger
}

func NewAdminHandler(admin *services.AdminService, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

func (h *AdminHandler) PlatformStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.admin.PlatformStats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "stats": st})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "users": users})
}
