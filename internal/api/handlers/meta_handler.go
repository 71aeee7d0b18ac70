package handlers

import (
	"net/http"

	"github.com/markdave123-py/counsel/internal/core/llm"
)

const serviceName = "legal-ai-platform"

type MetaHandler struct {
	version string
	catalog *llm.Catalog
}

func NewMetaHandler(version string, catalog *llm.Catalog) *MetaHandler {
	return &MetaHandler{version: version, catalog: catalog}
}

func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": h.version,
	})
}

func (h *MetaHandler) Models(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{"success": true, "models": h.catalog.Models()})
}
