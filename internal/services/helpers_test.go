package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/auth"
	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/core/coretest"
	"github.com/markdave123-py/counsel/internal/core/llm"
	"github.com/markdave123-py/counsel/internal/core/locker"
)

type stubGateway struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	prompts []core.Prompt
	models  []string
}

func (g *stubGateway) Complete(ctx context.Context, modelID string, p core.Prompt) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, p)
	g.models = append(g.models, modelID)
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

func (g *stubGateway) lastPrompt() core.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[len(g.prompts)-1]
}

type recordingQueue struct {
	ids  []string
	full bool
}

func (q *recordingQueue) Enqueue(id string) bool {
	if q.full {
		return false
	}
	q.ids = append(q.ids, id)
	return true
}

type fixture struct {
	db      *coretest.MemDB
	objects *coretest.MemObjects
	tokens  *auth.TokenService
	gateway *stubGateway
	queue   *recordingQueue

	users *UserService
	chat  *ChatService
	docs  *DocumentService
	admin *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	f := &fixture{
		db:      coretest.NewMemDB(),
		objects: coretest.NewMemObjects(),
		tokens:  auth.NewTokenService("test-secret"),
		gateway: &stubGateway{reply: "An answer."},
		queue:   &recordingQueue{},
	}
	f.users = NewUserService(f.db, f.tokens, log)
	f.chat = NewChatService(f.db, f.gateway, llm.NewCatalog("flan-t5-legal"), locker.NewLocalLocker(), time.Second, log)
	f.docs = NewDocumentService(f.db, f.objects, f.queue, log)
	f.admin = NewAdminService(f.db)
	return f
}

func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	res, err := f.users.Register(context.Background(), RegisterInput{Email: email, Password: "pw12345678", FullName: "Test User"})
	require.NoError(t, err)
	return res.User.ID
}

var errBoom = errors.New("boom")
