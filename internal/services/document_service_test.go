package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/counsel/internal/models"
)

func upload(t *testing.T, f *fixture, uid, body string) *models.Document {
	t.Helper()
	doc, err := f.docs.Upload(context.Background(), uid, UploadInput{
		Title:       "NDA",
		FileName:    "my nda.txt",
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	})
	require.NoError(t, err)
	return doc
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	doc := upload(t, f, uid, "confidential terms")

	assert.Equal(t, models.DocumentUploaded, doc.Status)
	assert.Equal(t, "my_nda.txt", doc.FileName)
	assert.Equal(t, "other", doc.DocumentType)
	assert.Equal(t, "documents/"+uid+"/"+doc.ID+"/my_nda.txt", doc.StorageKey)
	assert.True(t, f.objects.Has(doc.StorageKey))
	assert.Equal(t, []string{doc.ID}, f.queue.ids)

	got, rc, err := f.docs.Download(context.Background(), uid, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "confidential terms", string(b))
	assert.Equal(t, "text/plain", got.ContentType)

	docs, err := f.docs.List(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, f.db.AuditActions(), AuditUpload)
}

func TestUploadStorageFailureLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	f.objects.FailUploads = true
	uid := f.register(t, "alice@example.com")

	_, err := f.docs.Upload(context.Background(), uid, UploadInput{
		FileName: "a.pdf", Size: 3, Body: strings.NewReader("pdf"),
	})
	assert.ErrorIs(t, err, ErrUpstream)

	_, _, _, documents := f.db.Counts()
	assert.Zero(t, documents)
	assert.Empty(t, f.queue.ids)
	assert.Zero(t, f.objects.Len())
}

func TestUploadRequiresFile(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")

	_, err := f.docs.Upload(context.Background(), uid, UploadInput{FileName: "a.txt"})
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = f.docs.Upload(context.Background(), uid, UploadInput{Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestUploadWithFullQueueStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.queue.full = true
	uid := f.register(t, "alice@example.com")

	doc := upload(t, f, uid, "body")
	assert.Equal(t, models.DocumentUploaded, doc.Status)
}

func TestDocumentOwnership(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	doc := upload(t, f, alice, "secret")
	ctx := context.Background()

	_, err := f.docs.Get(ctx, bob, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.docs.Download(ctx, bob, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.docs.Delete(ctx, bob, doc.ID), ErrNotFound)
	_, err = f.docs.Get(ctx, alice, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := f.docs.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.True(t, f.objects.Has(doc.StorageKey))
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	doc := upload(t, f, uid, "body")
	ctx := context.Background()

	require.NoError(t, f.docs.Delete(ctx, uid, doc.ID))
	assert.False(t, f.objects.Has(doc.StorageKey))
	assert.ErrorIs(t, f.docs.Delete(ctx, uid, doc.ID), ErrNotFound)

	_, err := f.docs.Get(ctx, uid, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, f.db.AuditActions(), AuditDelete)
}

func TestDeleteDocumentWithBlobFailure(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	doc := upload(t, f, uid, "body")
	f.objects.FailDeletes = true

	require.NoError(t, f.docs.Delete(context.Background(), uid, doc.ID))
	_, err := f.docs.Get(context.Background(), uid, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadMissingBlob(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	doc := upload(t, f, uid, "body")
	require.NoError(t, f.objects.DeleteFile(context.Background(), doc.StorageKey))

	_, _, err := f.docs.Download(context.Background(), uid, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadStorageFailureIsOpaque(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	doc := upload(t, f, uid, "body")
	f.objects.ReadErr = errors.New("api error AccessDenied: bucket=internal-prod-secrets key=" + doc.StorageKey)

	_, _, err := f.docs.Download(context.Background(), uid, doc.ID)
	require.ErrorIs(t, err, ErrUpstream)
	assert.NotContains(t, err.Error(), "AccessDenied")
	assert.NotContains(t, err.Error(), doc.StorageKey)
}

func TestCleanFileName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"contract.pdf", "contract.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\my lease.doc`, "my_lease.doc"},
		{"  ", "file"},
		{"/", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanFileName(tt.in), tt.in)
	}
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	f.register(t, "bob@example.com")
	upload(t, f, uid, "12345")
	_, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "hi"})
	require.NoError(t, err)

	st, err := f.admin.PlatformStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Users.TotalUsers)
	assert.Equal(t, int64(2), st.Users.ActiveUsers)
	assert.Equal(t, int64(1), st.Documents.TotalDocuments)
	assert.Equal(t, int64(5), st.Documents.TotalStorage)
	assert.Equal(t, int64(1), st.Chat.TotalSessions)
	assert.Equal(t, int64(2), st.Chat.TotalMessages)

	users, err := f.admin.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.docs.Get(context.Background(), uid, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
