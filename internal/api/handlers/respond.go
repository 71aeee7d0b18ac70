package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/auth"
	"github.com/markdave123-py/counsel/internal/services"
)

type envelope map[string]any

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg, code string) {
	respondJSON(w, status, map[string]string{"error": msg, "code": code})
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrConflict, http.StatusConflict, "conflict"},
	{services.ErrQuotaExceeded, http.StatusTooManyRequests, "quota_exceeded"},
	{services.ErrUpstream, http.StatusServiceUnavailable, "upstream_failure"},
}

// writeServiceError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondError(w, e.status, err.Error(), e.code)
			return
		}
	}
	log.Errorw("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	respondError(w, http.StatusInternalServerError, "internal server error", "internal_error")
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return false
	}
	return true
}

// userID returns the authenticated caller. Routes using it sit behind JWTMiddleware.
func userID(r *http.Request) string {
	if c := auth.FromContext(r.Context()); c != nil {
		return c.UserID
	}
	return ""
}
