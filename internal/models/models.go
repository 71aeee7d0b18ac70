package models

import (
	"time"
)

// Role is the access level carried in a user's token.
type Role string

const (
	RoleUser       Role = "user"
	RoleEnterprise Role = "enterprise"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEnterprise, RoleAdmin:
		return true
	}
	return false
}

// DefaultAPIQuota is the chat exchange ceiling given to new accounts.
const DefaultAPIQuota = 100

// User represents an authenticated user of the system.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	Organization *string    `db:"organization" json:"organization,omitempty"`
	APIQuota     int        `db:"api_quota" json:"api_quota"`
	APIUsed      int        `db:"api_used" json:"api_used"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// QuotaExhausted reports whether the user has used every exchange allowed. A zero quota is unlimited.
func (u *User) QuotaExhausted() bool {
	return u.APIQuota > 0 && u.APIUsed >= u.APIQuota
}

// Document status lifecycle: pending -> uploaded -> processing -> ready | failed.
const (
	DocumentPending    = "pending"
	DocumentUploaded   = "uploaded"
	DocumentProcessing = "processing"
	DocumentReady      = "ready"
	DocumentFailed     = "failed"
)

// Document represents a user-uploaded file and where its bytes live in the object store.
type Document struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Title        string    `db:"title" json:"title"`
	FileName     string    `db:"filename" json:"filename"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	ContentType  string    `db:"content_type" json:"content_type"`
	StorageKey   string    `db:"storage_key" json:"-"`
	DocumentType string    `db:"document_type" json:"document_type"`
	Tags         string    `db:"tags" json:"tags"`
	Status       string    `db:"status" json:"status"`
	Excerpt      *string   `db:"excerpt" json:"excerpt,omitempty"`
	IsArchived   bool      `db:"is_archived" json:"is_archived"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ChatSession represents one conversation thread owned by a user.
type ChatSession struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	DocumentID   *string   `db:"document_id" json:"document_id,omitempty"`
	Title        string    `db:"title" json:"title"`
	ModelName    string    `db:"model_name" json:"model_name"`
	MessageCount int       `db:"message_count" json:"message_count"`
	IsArchived   bool      `db:"is_archived" json:"is_archived"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ChatMessage represents an individual chat message (user or assistant).
// Seq is assigned by the store and defines the order inside a session.
type ChatMessage struct {
	ID               string      `db:"id" json:"id"`
	SessionID        string      `db:"session_id" json:"session_id"`
	Seq              int64       `db:"seq" json:"-"`
	Role             MessageRole `db:"role" json:"role"`
	Content          string      `db:"content" json:"content"`
	ModelUsed        *string     `db:"model_used" json:"model_used,omitempty"`
	ProcessingTimeMs *int64      `db:"processing_time_ms" json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

// AuditLog records security relevant user actions.
type AuditLog struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Action       string    `db:"action" json:"action"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	Users struct {
		TotalUsers  int64 `json:"total_users"`
		ActiveUsers int64 `json:"active_users"`
	} `json:"users"`
	Documents struct {
		TotalDocuments int64 `json:"total_documents"`
		TotalStorage   int64 `json:"total_storage"`
	} `json:"documents"`
	Chat struct {
		TotalSessions int64 `json:"total_sessions"`
		TotalMessages int64 `json:"total_messages"`
	} `json:"chat"`
}

// UserStats summarises one user's activity.
type UserStats struct {
	Documents struct {
		Total     int64 `json:"total"`
		TotalSize int64 `json:"total_size"`
	} `json:"documents"`
	Chats struct {
		TotalSessions int64 `json:"total_sessions"`
		TotalMessages int64 `json:"total_messages"`
	} `json:"chats"`
	RecentActivity []AuditLog `json:"recent_activity"`
}
