package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/counsel/internal/config"
	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// buildDSN appends verify-ca SSL params when a root certificate is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for user

const userColumns = `id, email, password_hash, full_name, role, organization, api_quota, api_used,
	is_active, last_login, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Organization, &u.APIQuota, &u.APIUsed,
		&u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password_hash, full_name, role, organization, api_quota, api_used, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Role, user.Organization,
		user.APIQuota, user.APIUsed, user.IsActive, user.CreatedAt, user.UpdatedAt)
	return wrapWriteError(err)
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (c *DatabaseClient) TouchLastLogin(ctx context.Context, id string) error {
	return c.execOne(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)
}

func (c *DatabaseClient) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return c.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (c *DatabaseClient) IncrementQuotaUsed(ctx context.Context, id string) error {
	return c.execOne(ctx, `UPDATE users SET api_used = api_used + 1 WHERE id = $1`, id)
}

func (c *DatabaseClient) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Implementing the db interface for chat

const sessionColumns = `id, user_id, document_id, title, model_name, message_count, is_archived, created_at, updated_at`

func scanSession(row rowScanner) (*models.ChatSession, error) {
	var s models.ChatSession
	if err := row.Scan(
		&s.ID, &s.UserID, &s.DocumentID, &s.Title, &s.ModelName, &s.MessageCount, &s.IsArchived, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *DatabaseClient) CreateChatSession(ctx context.Context, s *models.ChatSession) error {
	if s == nil {
		return errors.New("nil session")
	}
	const q = `
		INSERT INTO chat_sessions (id, user_id, document_id, title, model_name, message_count, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.db.ExecContext(ctx, q,
		s.ID, s.UserID, s.DocumentID, s.Title, s.ModelName, s.MessageCount, s.IsArchived, s.CreatedAt, s.UpdatedAt)
	return wrapWriteError(err)
}

func (c *DatabaseClient) GetChatSession(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	s, err := scanSession(c.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (c *DatabaseClient) ListChatSessions(ctx context.Context, userID string, limit int) ([]models.ChatSession, error) {
	const q = `
		SELECT ` + sessionColumns + `
		FROM chat_sessions
		WHERE user_id = $1 AND NOT is_archived
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ArchiveChatSession(ctx context.Context, id, userID string) (bool, error) {
	res, err := c.db.ExecContext(ctx,
		`UPDATE chat_sessions SET is_archived = TRUE, updated_at = now() WHERE id = $1 AND user_id = $2 AND NOT is_archived`,
		id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (c *DatabaseClient) AddChatMessage(ctx context.Context, m *models.ChatMessage) error {
	if m == nil {
		return errors.New("nil message")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
		INSERT INTO chat_messages (id, session_id, role, content, model_used, processing_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`
	if err := tx.QueryRowContext(ctx, insert,
		m.ID, m.SessionID, m.Role, m.Content, m.ModelUsed, m.ProcessingTimeMs, m.CreatedAt,
	).Scan(&m.Seq); err != nil {
		return wrapWriteError(err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET message_count = message_count + 1, updated_at = now() WHERE id = $1`, m.SessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chat session not found: %s", m.SessionID)
	}
	return tx.Commit()
}

func (c *DatabaseClient) ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	const q = `
		SELECT id, session_id, seq, role, content, model_used, processing_time_ms, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY seq ASC
	`
	rows, err := c.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Seq, &m.Role, &m.Content, &m.ModelUsed, &m.ProcessingTimeMs, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Implementing the db interface for Document

const documentColumns = `id, user_id, title, filename, file_size, content_type, storage_key, document_type, tags,
	status, excerpt, is_archived, created_at, updated_at`

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	if err := row.Scan(
		&d.ID, &d.UserID, &d.Title, &d.FileName, &d.FileSize, &d.ContentType, &d.StorageKey, &d.DocumentType, &d.Tags,
		&d.Status, &d.Excerpt, &d.IsArchived, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, user_id, title, filename, file_size, content_type, storage_key, document_type, tags, status, is_archived, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.Title, doc.FileName, doc.FileSize, doc.ContentType, doc.StorageKey,
		doc.DocumentType, doc.Tags, doc.Status, doc.IsArchived, doc.CreatedAt, doc.UpdatedAt)
	return wrapWriteError(err)
}

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	d, err := scanDocument(c.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (c *DatabaseClient) GetDocumentForUser(ctx context.Context, id, userID string) (*models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND user_id = $2 AND NOT is_archived AND status <> 'pending'
	`
	d, err := scanDocument(c.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (c *DatabaseClient) ListDocumentsByUser(ctx context.Context, userID string, limit int) ([]models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1 AND NOT is_archived AND status <> 'pending'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status string) error {
	return c.execOne(ctx, `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`, id, status)
}

func (c *DatabaseClient) UpdateDocumentExtraction(ctx context.Context, id, status string, excerpt *string) error {
	return c.execOne(ctx,
		`UPDATE documents SET status = $2, excerpt = $3, updated_at = now() WHERE id = $1`, id, status, excerpt)
}

func (c *DatabaseClient) ArchiveDocument(ctx context.Context, id, userID string) (bool, error) {
	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET is_archived = TRUE, updated_at = now() WHERE id = $1 AND user_id = $2 AND NOT is_archived AND status <> 'pending'`,
		id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	return c.execOne(ctx, `DELETE FROM documents WHERE id = $1`, id)
}

// Implementing the db interface for audit logs and statistics

func (c *DatabaseClient) InsertAuditLog(ctx context.Context, e *models.AuditLog) error {
	if e == nil {
		return errors.New("nil audit entry")
	}
	const q = `
		INSERT INTO audit_logs (id, user_id, action, resource_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := c.db.ExecContext(ctx, q, e.ID, e.UserID, e.Action, e.ResourceType, e.Status, e.CreatedAt)
	return err
}

func (c *DatabaseClient) ListAuditLogs(ctx context.Context, userID string, limit int) ([]models.AuditLog, error) {
	const q = `
		SELECT id, user_id, action, resource_type, status, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var st models.PlatformStats
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM users`,
	).Scan(&st.Users.TotalUsers, &st.Users.ActiveUsers); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM documents WHERE NOT is_archived AND status <> 'pending'`,
	).Scan(&st.Documents.TotalDocuments, &st.Documents.TotalStorage); err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(message_count), 0) FROM chat_sessions WHERE NOT is_archived`,
	).Scan(&st.Chat.TotalSessions, &st.Chat.TotalMessages); err != nil {
		return nil, fmt.Errorf("chat stats: %w", err)
	}
	return &st, nil
}

func (c *DatabaseClient) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var st models.UserStats
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM documents WHERE user_id = $1 AND NOT is_archived AND status <> 'pending'`,
		userID,
	).Scan(&st.Documents.Total, &st.Documents.TotalSize); err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(message_count), 0) FROM chat_sessions WHERE user_id = $1 AND NOT is_archived`,
		userID,
	).Scan(&st.Chats.TotalSessions, &st.Chats.TotalMessages); err != nil {
		return nil, fmt.Errorf("chat stats: %w", err)
	}
	return &st, nil
}

// execOne runs a single-row write and reports a missing row as an error.
func (c *DatabaseClient) execOne(ctx context.Context, q string, args ...any) error {
	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return wrapWriteError(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("no row matched for id %v", args[0])
	}
	return nil
}
