package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/core/llm"
	"github.com/markdave123-py/counsel/internal/core/locker"
	"github.com/markdave123-py/counsel/internal/models"
)

func TestQueryCreatesSession(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")

	res, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "What is a contract?"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, models.MessageRoleAssistant, res.Message.Role)
	assert.Equal(t, "An answer.", res.Message.Content)
	assert.Equal(t, "flan-t5-legal", res.Message.ModelUsed)

	sessions, err := f.chat.ListSessions(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, res.SessionID, sessions[0].ID)
	assert.Equal(t, 2, sessions[0].MessageCount)
	assert.Equal(t, "What is a contract?", sessions[0].Title)

	msgs, err := f.chat.ListMessages(context.Background(), uid, res.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "What is a contract?", msgs[0].Content)
	assert.Equal(t, models.MessageRoleAssistant, msgs[1].Role)
	require.NotNil(t, msgs[1].ModelUsed)
	assert.Equal(t, "flan-t5-legal", *msgs[1].ModelUsed)
	require.NotNil(t, msgs[1].ProcessingTimeMs)

	user, _ := f.db.GetUserByID(context.Background(), uid)
	assert.Equal(t, 1, user.APIUsed)
}

func TestQueryWithKeywordGateway(t *testing.T) {
	f := newFixture(t)
	f.chat = NewChatService(f.db, llm.NewKeywordGateway(), llm.NewCatalog(""), locker.NewLocalLocker(), time.Second, zap.NewNop().Sugar())
	uid := f.register(t, "alice@example.com")

	res, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "What is a contract?"})
	require.NoError(t, err)
	assert.Contains(t, res.Message.Content, "legally enforceable agreement")
}

func TestQueryContinuesSession(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	ctx := context.Background()

	first, err := f.chat.Query(ctx, uid, QueryInput{Message: "first"})
	require.NoError(t, err)
	second, err := f.chat.Query(ctx, uid, QueryInput{SessionID: first.SessionID, Message: "second", Model: "legal-bert"})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, "legal-bert", second.Message.ModelUsed)

	msgs, err := f.chat.ListMessages(ctx, uid, first.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	contents := []string{msgs[0].Content, msgs[2].Content}
	assert.Equal(t, []string{"first", "second"}, contents)
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}
}

func TestQueryRejectsForeignAndUnknownSessions(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	ctx := context.Background()

	res, err := f.chat.Query(ctx, alice, QueryInput{Message: "mine"})
	require.NoError(t, err)

	for _, id := range []string{res.SessionID, uuid.NewString(), "not-a-uuid"} {
		_, err = f.chat.Query(ctx, bob, QueryInput{SessionID: id, Message: "theirs"})
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
	_, err = f.chat.ListMessages(ctx, bob, res.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, messages, _ := f.db.Counts()
	assert.Equal(t, 2, messages)
}

func TestQueryArchivedSession(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	ctx := context.Background()

	res, err := f.chat.Query(ctx, uid, QueryInput{Message: "hello"})
	require.NoError(t, err)
	require.NoError(t, f.chat.ArchiveSession(ctx, uid, res.SessionID))
	assert.ErrorIs(t, f.chat.ArchiveSession(ctx, uid, res.SessionID), ErrNotFound)

	_, err = f.chat.Query(ctx, uid, QueryInput{SessionID: res.SessionID, Message: "again"})
	assert.ErrorIs(t, err, ErrNotFound)

	sessions, err := f.chat.ListSessions(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	msgs, err := f.chat.ListMessages(ctx, uid, res.SessionID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestQueryGatewayFailureStoresFallback(t *testing.T) {
	tests := []struct {
		name string
		gw   *stubGateway
	}{
		{"error", &stubGateway{err: errBoom}},
		{"empty reply", &stubGateway{reply: "   "}},
		{"timeout", &stubGateway{reply: "late", delay: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.chat = NewChatService(f.db, tt.gw, llm.NewCatalog(""), locker.NewLocalLocker(), 50*time.Millisecond, zap.NewNop().Sugar())
			uid := f.register(t, "alice@example.com")

			res, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "What is a lease?"})
			require.NoError(t, err)
			assert.Equal(t, FallbackReply, res.Message.Content)

			msgs, err := f.chat.ListMessages(context.Background(), uid, res.SessionID)
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, FallbackReply, msgs[1].Content)
		})
	}
}

func TestQueryQuota(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	require.NoError(t, f.db.SetUser(uid, func(u *models.User) { u.APIUsed = u.APIQuota }))

	_, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "hello"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, sessions, messages, _ := f.db.Counts()
	assert.Zero(t, sessions)
	assert.Zero(t, messages)
}

func TestQueryUnlimitedQuota(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "admin@example.com")
	require.NoError(t, f.db.SetUser(uid, func(u *models.User) { u.APIQuota = 0; u.APIUsed = 500 }))

	_, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "hello"})
	assert.NoError(t, err)
}

func TestQueryQuotaIncrementFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.db.FailQuotaIncrement = true
	uid := f.register(t, "alice@example.com")

	res, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "An answer.", res.Message.Content)

	user, _ := f.db.GetUserByID(context.Background(), uid)
	assert.Zero(t, user.APIUsed)
}

func TestQueryValidation(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")

	_, err := f.chat.Query(context.Background(), uid, QueryInput{Message: "  "})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = f.chat.Query(context.Background(), uuid.NewString(), QueryInput{Message: "hi"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.db.SetUser(uid, func(u *models.User) { u.IsActive = false }))
	_, err = f.chat.Query(context.Background(), uid, QueryInput{Message: "hi"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestQueryTitleTruncation(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	long := strings.Repeat("é", 80)

	res, err := f.chat.Query(context.Background(), uid, QueryInput{Message: long})
	require.NoError(t, err)

	sessions, err := f.chat.ListSessions(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, res.SessionID, sessions[0].ID)
	assert.Equal(t, strings.Repeat("é", 50), sessions[0].Title)
}

func TestQueryUsesDocumentContext(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	ctx := context.Background()

	doc, err := f.docs.Upload(ctx, uid, UploadInput{
		Title: "Office Lease", DocumentType: "lease", FileName: "lease.txt",
		ContentType: "text/plain", Size: 5, Body: strings.NewReader("lease"),
	})
	require.NoError(t, err)
	excerpt := "Tenant pays rent monthly."
	require.NoError(t, f.db.UpdateDocumentExtraction(ctx, doc.ID, models.DocumentReady, &excerpt))

	res, err := f.chat.Query(ctx, uid, QueryInput{Message: "When is rent due?", DocumentID: doc.ID})
	require.NoError(t, err)
	p := f.gateway.lastPrompt()
	assert.Contains(t, p.DocumentContext, "Title: Office Lease")
	assert.Contains(t, p.DocumentContext, excerpt)

	// later turns reuse the session's document
	_, err = f.chat.Query(ctx, uid, QueryInput{SessionID: res.SessionID, Message: "And the deposit?"})
	require.NoError(t, err)
	assert.Contains(t, f.gateway.lastPrompt().DocumentContext, "Filename: lease.txt")

	// a foreign document is ignored rather than leaked
	bob := f.register(t, "bob@example.com")
	_, err = f.chat.Query(ctx, bob, QueryInput{Message: "What does it say?", DocumentID: doc.ID})
	require.NoError(t, err)
	assert.Empty(t, f.gateway.lastPrompt().DocumentContext)
}

func TestConcurrentQueriesKeepPairsAdjacent(t *testing.T) {
	f := newFixture(t)
	f.gateway.delay = 5 * time.Millisecond
	uid := f.register(t, "alice@example.com")
	ctx := context.Background()

	res, err := f.chat.Query(ctx, uid, QueryInput{Message: "start"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.chat.Query(ctx, uid, QueryInput{SessionID: res.SessionID, Message: "again"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs, err := f.chat.ListMessages(ctx, uid, res.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 18)
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, models.MessageRoleUser, msgs[i].Role)
		assert.Equal(t, models.MessageRoleAssistant, msgs[i+1].Role)
	}
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	uid := f.register(t, "alice@example.com")
	ctx := context.Background()

	s, err := f.chat.CreateSession(ctx, uid, CreateSessionInput{})
	require.NoError(t, err)
	assert.Equal(t, "New Chat", s.Title)
	assert.Equal(t, "flan-t5-legal", s.ModelName)
	assert.Nil(t, s.DocumentID)

	s, err = f.chat.CreateSession(ctx, uid, CreateSessionInput{Title: "Lease review", ModelName: "legal-bert"})
	require.NoError(t, err)
	assert.Equal(t, "legal-bert", s.ModelName)

	_, err = f.chat.CreateSession(ctx, uid, CreateSessionInput{DocumentID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrNotFound)

	sessions, err := f.chat.ListSessions(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
