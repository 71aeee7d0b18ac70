package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/services"
)

// multipart parts beyond this spill to temp files
const multipartMemory = 8 << 20

type DocumentHandler struct {
	docs      *services.DocumentService
	maxUpload int64
	log       *zap.SugaredLogger
}

func NewDocumentHandler(docs *services.DocumentService, maxUpload int64, log *zap.SugaredLogger) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxUpload: maxUpload, log: log}
}

// Upload handles the multipart form: title, document_type, tags and file.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large", "payload_too_large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form", "bad_request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file provided", "bad_request")
		return
	}
	defer file.Close()

	doc, err := h.docs.Upload(r.Context(), userID(r), services.UploadInput{
		Title:        r.FormValue("title"),
		DocumentType: r.FormValue("document_type"),
		Tags:         r.FormValue("tags"),
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, envelope{"success": true, "document": doc})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "documents": docs})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true, "document": doc})
}

// Download streams the stored bytes with the content type recorded at upload.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, body, err := h.docs.Download(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	if doc.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warnw("download interrupted", "doc_id", doc.ID, "err", err)
	}
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, envelope{"success": true})
}
