package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/counsel/internal/config"
	"github.com/markdave123-py/counsel/internal/models"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN("postgres://u:p@localhost:5432/counsel", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/counsel", dsn)

	_, err = buildDSN("postgres://u:p@localhost:5432/counsel", "/does/not/exist.pem")
	assert.Error(t, err)

	cert := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o600))
	dsn, err = buildDSN("postgres://u:p@localhost:5432/counsel?application_name=api", cert)
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=verify-ca")
	assert.Contains(t, dsn, "application_name=api")
	assert.Contains(t, dsn, "sslrootcert=")
}

func TestWrapWriteError(t *testing.T) {
	assert.NoError(t, wrapWriteError(nil))

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := wrapWriteError(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "users_email_key")

	other := errors.New("connection refused")
	assert.Equal(t, other, wrapWriteError(other))
}

// newTestClient connects to the database named by COUNSEL_TEST_DATABASE_URL.
func newTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	url := os.Getenv("COUNSEL_TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("COUNSEL_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	c, err := NewDatabaseClient(ctx, &config.Config{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID: uuid.NewString(), Email: email, PasswordHash: "x", FullName: "Integration",
		Role: models.RoleUser, APIQuota: models.DefaultAPIQuota, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestDatabaseClientChatFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	u := testUser(uuid.NewString() + "@example.com")
	require.NoError(t, c.CreateUser(ctx, u))
	assert.ErrorIs(t, c.CreateUser(ctx, testUser(u.Email)), ErrDuplicate)

	got, err := c.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := c.GetUserByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Now().UTC()
	s := &models.ChatSession{ID: uuid.NewString(), UserID: u.ID, Title: "t", ModelName: "flan-t5-legal", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, c.CreateChatSession(ctx, s))

	for _, role := range []models.MessageRole{models.MessageRoleUser, models.MessageRoleAssistant} {
		require.NoError(t, c.AddChatMessage(ctx, &models.ChatMessage{
			ID: uuid.NewString(), SessionID: s.ID, Role: role, Content: string(role), CreatedAt: time.Now().UTC(),
		}))
	}

	msgs, err := c.ListChatMessages(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MessageRoleUser, msgs[0].Role)
	assert.Less(t, msgs[0].Seq, msgs[1].Seq)

	loaded, err := c.GetChatSession(ctx, s.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.MessageCount)

	foreign, err := c.GetChatSession(ctx, s.ID, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, foreign)

	require.NoError(t, c.IncrementQuotaUsed(ctx, u.ID))
	got, err = c.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.APIUsed)

	ok, err := c.ArchiveChatSession(ctx, s.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.ArchiveChatSession(ctx, s.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatabaseClientDocumentVisibility(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	u := testUser(uuid.NewString() + "@example.com")
	require.NoError(t, c.CreateUser(ctx, u))

	now := time.Now().UTC()
	doc := &models.Document{
		ID: uuid.NewString(), UserID: u.ID, Title: "NDA", FileName: "nda.pdf", FileSize: 10,
		ContentType: "application/pdf", DocumentType: "nda", Status: models.DocumentPending,
		CreatedAt: now, UpdatedAt: now,
	}
	doc.StorageKey = "documents/" + u.ID + "/" + doc.ID + "/nda.pdf"
	require.NoError(t, c.CreateDocument(ctx, doc))

	pending, err := c.GetDocumentForUser(ctx, doc.ID, u.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)

	require.NoError(t, c.UpdateDocumentStatus(ctx, doc.ID, models.DocumentUploaded))
	visible, err := c.GetDocumentForUser(ctx, doc.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, visible)

	excerpt := "Confidential information means..."
	require.NoError(t, c.UpdateDocumentExtraction(ctx, doc.ID, models.DocumentReady, &excerpt))
	ready, err := c.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentReady, ready.Status)
	require.NotNil(t, ready.Excerpt)
	assert.Equal(t, excerpt, *ready.Excerpt)

	st, err := c.UserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents.Total)
	assert.Equal(t, int64(10), st.Documents.TotalSize)

	ok, err := c.ArchiveDocument(ctx, doc.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	docs, err := c.ListDocumentsByUser(ctx, u.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
