package core

import (
	"context"
	"errors"
	"io"

	"github.com/markdave123-py/counsel/internal/models"
)

// ErrObjectNotFound is returned by ObjectClient when the key has no object behind it.
var ErrObjectNotFound = errors.New("object not found")

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres so higher layers never depend on a specific DB.
//
// Single-row lookups return (nil, nil) when nothing matches. Lookups that take a
// userID only match rows owned by that user, so a foreign id and a missing id
// are indistinguishable to callers.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	IncrementQuotaUsed(ctx context.Context, id string) error
	ListUsers(ctx context.Context, limit int) ([]models.User, error)

	CreateChatSession(ctx context.Context, session *models.ChatSession) error
	GetChatSession(ctx context.Context, id, userID string) (*models.ChatSession, error)
	ListChatSessions(ctx context.Context, userID string, limit int) ([]models.ChatSession, error)
	ArchiveChatSession(ctx context.Context, id, userID string) (bool, error)

	// AddChatMessage appends a message and bumps the session's counter and updated_at atomically.
	AddChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	GetDocumentForUser(ctx context.Context, id, userID string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string, limit int) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error
	UpdateDocumentExtraction(ctx context.Context, id, status string, excerpt *string) error
	ArchiveDocument(ctx context.Context, id, userID string) (bool, error)
	DeleteDocument(ctx context.Context, id string) error

	InsertAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, userID string, limit int) ([]models.AuditLog, error)

	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// A client is bound to one bucket.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, key string) error
	GetFile(ctx context.Context, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error)
}
