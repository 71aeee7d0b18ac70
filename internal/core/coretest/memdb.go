// Package coretest provides in-memory implementations of the core storage
// interfaces for service and handler tests.
package coretest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/counsel/internal/core"
	db "github.com/markdave123-py/counsel/internal/core/database"
	"github.com/markdave123-py/counsel/internal/models"
)

// MemDB mirrors the Postgres client's semantics closely enough for service tests:
// lowercased unique emails, owner-scoped lookups, seq-ordered messages.
type MemDB struct {
	mu       sync.Mutex
	seq      int64
	users    map[string]*models.User
	sessions map[string]*models.ChatSession
	messages []models.ChatMessage
	docs     map[string]*models.Document
	audit    []models.AuditLog

	// FailQuotaIncrement makes IncrementQuotaUsed return an error.
	FailQuotaIncrement bool
}

var _ core.DbClient = (*MemDB)(nil)

func NewMemDB() *MemDB {
	return &MemDB{
		users:    map[string]*models.User{},
		sessions: map[string]*models.ChatSession{},
		docs:     map[string]*models.Document{},
	}
}

func (m *MemDB) Close() error { return nil }

func (m *MemDB) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: users_email_key", db.ErrDuplicate)
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemDB) TouchLastLogin(_ context.Context, id string) error {
	return m.updateUser(id, func(u *models.User) {
		now := time.Now().UTC()
		u.LastLogin = &now
	})
}

func (m *MemDB) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return m.updateUser(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *MemDB) IncrementQuotaUsed(_ context.Context, id string) error {
	if m.FailQuotaIncrement {
		return fmt.Errorf("quota counter unavailable")
	}
	return m.updateUser(id, func(u *models.User) { u.APIUsed++ })
}

// SetUser applies fn to a stored user; tests use it to shape quota or role.
func (m *MemDB) SetUser(id string, fn func(u *models.User)) error {
	return m.updateUser(id, fn)
}

func (m *MemDB) updateUser(id string, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("no row matched for id %v", id)
	}
	fn(u)
	return nil
}

func (m *MemDB) ListUsers(_ context.Context, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capSlice(out, limit), nil
}

func (m *MemDB) CreateChatSession(_ context.Context, s *models.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemDB) GetChatSession(_ context.Context, id, userID string) (*models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemDB) ListChatSessions(_ context.Context, userID string, limit int) ([]models.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID && !s.IsArchived {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return capSlice(out, limit), nil
}

func (m *MemDB) ArchiveChatSession(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || s.IsArchived {
		return false, nil
	}
	s.IsArchived = true
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemDB) AddChatMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[msg.SessionID]
	if !ok {
		return fmt.Errorf("chat session not found: %s", msg.SessionID)
	}
	m.seq++
	msg.Seq = m.seq
	m.messages = append(m.messages, *msg)
	s.MessageCount++
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemDB) ListChatMessages(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *MemDB) CreateDocument(_ context.Context, d *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.docs {
		if existing.StorageKey == d.StorageKey {
			return fmt.Errorf("%w: documents_storage_key_key", db.ErrDuplicate)
		}
	}
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *MemDB) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func visible(d *models.Document, userID string) bool {
	return d.UserID == userID && !d.IsArchived && d.Status != models.DocumentPending
}

func (m *MemDB) GetDocumentForUser(_ context.Context, id, userID string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || !visible(d, userID) {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *MemDB) ListDocumentsByUser(_ context.Context, userID string, limit int) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.docs {
		if visible(d, userID) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capSlice(out, limit), nil
}

func (m *MemDB) UpdateDocumentStatus(_ context.Context, id string, status string) error {
	return m.updateDoc(id, func(d *models.Document) { d.Status = status })
}

func (m *MemDB) UpdateDocumentExtraction(_ context.Context, id, status string, excerpt *string) error {
	return m.updateDoc(id, func(d *models.Document) {
		d.Status = status
		d.Excerpt = excerpt
	})
}

func (m *MemDB) updateDoc(id string, fn func(d *models.Document)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("no row matched for id %v", id)
	}
	fn(d)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemDB) ArchiveDocument(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || !visible(d, userID) {
		return false, nil
	}
	d.IsArchived = true
	return true, nil
}

func (m *MemDB) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("no row matched for id %v", id)
	}
	delete(m.docs, id)
	return nil
}

func (m *MemDB) InsertAuditLog(_ context.Context, e *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, *e)
	return nil
}

func (m *MemDB) ListAuditLogs(_ context.Context, userID string, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].UserID == userID {
			out = append(out, m.audit[i])
		}
	}
	return capSlice(out, limit), nil
}

func (m *MemDB) PlatformStats(_ context.Context) (*models.PlatformStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st models.PlatformStats
	for _, u := range m.users {
		st.Users.TotalUsers++
		if u.IsActive {
			st.Users.ActiveUsers++
		}
	}
	for _, d := range m.docs {
		if !d.IsArchived && d.Status != models.DocumentPending {
			st.Documents.TotalDocuments++
			st.Documents.TotalStorage += d.FileSize
		}
	}
	for _, s := range m.sessions {
		if !s.IsArchived {
			st.Chat.TotalSessions++
			st.Chat.TotalMessages += int64(s.MessageCount)
		}
	}
	return &st, nil
}

func (m *MemDB) UserStats(_ context.Context, userID string) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st models.UserStats
	for _, d := range m.docs {
		if visible(d, userID) {
			st.Documents.Total++
			st.Documents.TotalSize += d.FileSize
		}
	}
	for _, s := range m.sessions {
		if s.UserID == userID && !s.IsArchived {
			st.Chats.TotalSessions++
			st.Chats.TotalMessages += int64(s.MessageCount)
		}
	}
	return &st, nil
}

// Counts reports row totals for assertions that no extra rows were written.
func (m *MemDB) Counts() (users, sessions, messages, documents int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), len(m.sessions), len(m.messages), len(m.docs)
}

// AuditActions lists recorded audit actions in insertion order.
func (m *MemDB) AuditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.audit))
	for _, e := range m.audit {
		out = append(out, e.Action)
	}
	return out
}

func capSlice[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
