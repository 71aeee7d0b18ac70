package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/models"
)

const (
	documentListLimit   = 50
	defaultContentType  = "application/octet-stream"
	defaultDocumentType = "other"
)

// ExtractionQueue receives uploaded document ids for background text extraction.
type ExtractionQueue interface {
	Enqueue(docID string) bool
}

type DocumentService struct {
	db      core.DbClient
	storage core.ObjectClient
	queue   ExtractionQueue
	log     *zap.SugaredLogger
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, queue ExtractionQueue, log *zap.SugaredLogger) *DocumentService {
	return &DocumentService{db: db, storage: storage, queue: queue, log: log}
}

type UploadInput struct {
	Title        string
	DocumentType string
	Tags         string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Upload stores the metadata row as pending, writes the blob, then marks the row
// uploaded. Pending rows are invisible to every read, so a crash between the
// steps never exposes a document without bytes.
func (s *DocumentService) Upload(ctx context.Context, userID string, in UploadInput) (*models.Document, error) {
	if in.Body == nil || strings.TrimSpace(in.FileName) == "" {
		return nil, fmt.Errorf("%w: no file provided", ErrBadRequest)
	}

	name := cleanFileName(in.FileName)
	now := time.Now().UTC()
	doc := &models.Document{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        firstNonEmpty(in.Title, name),
		FileName:     name,
		FileSize:     in.Size,
		ContentType:  firstNonEmpty(in.ContentType, defaultContentType),
		DocumentType: firstNonEmpty(in.DocumentType, defaultDocumentType),
		Tags:         strings.TrimSpace(in.Tags),
		Status:       models.DocumentPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doc.StorageKey = objectKey(userID, doc.ID, name)

	if err := s.db.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.storage.UploadFile(ctx, doc.StorageKey, in.Body, in.Size, doc.ContentType); err != nil {
		s.log.Errorw("blob upload failed", "doc_id", doc.ID, "err", err)
		if derr := s.db.DeleteDocument(context.WithoutCancel(ctx), doc.ID); derr != nil {
			s.log.Errorw("pending document cleanup failed", "doc_id", doc.ID, "err", derr)
		}
		return nil, fmt.Errorf("%w: storage unavailable", ErrUpstream)
	}

	if err := s.db.UpdateDocumentStatus(ctx, doc.ID, models.DocumentUploaded); err != nil {
		return nil, fmt.Errorf("confirm document: %w", err)
	}
	doc.Status = models.DocumentUploaded

	if s.queue != nil && !s.queue.Enqueue(doc.ID) {
		s.log.Warnw("extraction not scheduled", "doc_id", doc.ID)
	}

	recordAudit(ctx, s.db, s.log, userID, AuditUpload, "document")
	s.log.Infow("document uploaded", "doc_id", doc.ID, "user_id", userID, "size", doc.FileSize)
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.db.ListDocumentsByUser(ctx, userID, documentListLimit)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, id string) (*models.Document, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: document", ErrNotFound)
	}
	doc, err := s.db.GetDocumentForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document", ErrNotFound)
	}
	return doc, nil
}

// Download returns the document and a reader over its bytes. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, userID, id string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.GetObjectReader(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, core.ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("%w: file", ErrNotFound)
		}
		s.log.Errorw("blob download failed", "doc_id", doc.ID, "err", err)
		return nil, nil, fmt.Errorf("%w: storage unavailable", ErrUpstream)
	}
	return doc, rc, nil
}

// Delete archives the row first so no reader can reach a missing blob, then
// removes the blob. A failed blob delete leaves an orphan object, which is logged.
func (s *DocumentService) Delete(ctx context.Context, userID, id string) error {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	ok, err := s.db.ArchiveDocument(ctx, doc.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: document", ErrNotFound)
	}

	if err := s.storage.DeleteFile(context.WithoutCancel(ctx), doc.StorageKey); err != nil {
		s.log.Errorw("orphaned blob after document delete", "doc_id", doc.ID, "key", doc.StorageKey, "err", err)
	}

	recordAudit(ctx, s.db, s.log, userID, AuditDelete, "document")
	return nil
}

// objectKey creates a consistent S3 key layout.
func objectKey(userID, docID, filename string) string {
	return path.Join("documents", userID, docID, filename)
}

func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func firstNonEmpty(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
