package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/core/llm"
	"github.com/markdave123-py/counsel/internal/core/locker"
	"github.com/markdave123-py/counsel/internal/models"
)

const (
	sessionListLimit = 50
	titleRunes       = 50
	defaultTitle     = "New Chat"

	// FallbackReply replaces the assistant answer when inference fails.
	FallbackReply = "I apologize, but I could not complete your request right now. Please try again later."
)

// ChatService runs chat exchanges: session resolution, message persistence and inference.
type ChatService struct {
	db      core.DbClient
	gateway core.InferenceGateway
	catalog *llm.Catalog
	locks   locker.Locker
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewChatService(db core.DbClient, gateway core.InferenceGateway, catalog *llm.Catalog, locks locker.Locker, timeout time.Duration, log *zap.SugaredLogger) *ChatService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatService{db: db, gateway: gateway, catalog: catalog, locks: locks, timeout: timeout, log: log}
}

type QueryInput struct {
	SessionID  string
	Message    string
	Model      string
	DocumentID string
}

type AssistantReply struct {
	Role             models.MessageRole `json:"role"`
	Content          string             `json:"content"`
	ModelUsed        string             `json:"model_used"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}

type QueryResult struct {
	SessionID string         `json:"session_id"`
	Message   AssistantReply `json:"message"`
}

// Query runs one exchange. The user message is stored before inference and an
// inference failure is stored as FallbackReply, so both turns always land in
// the session log.
func (s *ChatService) Query(ctx context.Context, userID string, in QueryInput) (*QueryResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message required", ErrBadRequest)
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	if user.QuotaExhausted() {
		return nil, fmt.Errorf("%w: %d of %d exchanges used", ErrQuotaExceeded, user.APIUsed, user.APIQuota)
	}

	var doc *models.Document
	if in.DocumentID != "" {
		if doc, err = s.ownedDocument(ctx, userID, in.DocumentID); err != nil {
			return nil, err
		}
	}

	var session *models.ChatSession
	if in.SessionID == "" {
		session, err = s.newSession(ctx, userID, titleFrom(message), s.catalog.Resolve(in.Model).ID, doc)
		if err != nil {
			return nil, err
		}
	} else {
		session, err = s.activeSession(ctx, userID, in.SessionID)
		if err != nil {
			return nil, err
		}
	}

	model := s.catalog.Resolve(session.ModelName)
	if in.Model != "" {
		model = s.catalog.Resolve(in.Model)
	}

	unlock, err := s.locks.Lock(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	if doc == nil && in.DocumentID == "" && session.DocumentID != nil {
		if doc, err = s.ownedDocument(ctx, userID, *session.DocumentID); err != nil {
			return nil, err
		}
	}

	if err := s.appendMessage(ctx, session.ID, models.MessageRoleUser, message, nil, nil); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	prompt := core.Prompt{Question: message, DocumentContext: documentContext(doc)}
	content, elapsed := s.complete(ctx, model.ID, prompt, session.ID)

	// the exchange is written out even if the caller has gone away
	persistCtx := context.WithoutCancel(ctx)
	modelID := model.ID
	if err := s.appendMessage(persistCtx, session.ID, models.MessageRoleAssistant, content, &modelID, &elapsed); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	if err := s.db.IncrementQuotaUsed(persistCtx, userID); err != nil {
		s.log.Warnw("quota increment failed", "user_id", userID, "err", err)
	}

	return &QueryResult{
		SessionID: session.ID,
		Message: AssistantReply{
			Role:             models.MessageRoleAssistant,
			Content:          content,
			ModelUsed:        model.ID,
			ProcessingTimeMs: elapsed,
		},
	}, nil
}

// complete calls the gateway under the configured timeout and absorbs failures.
func (s *ChatService) complete(ctx context.Context, modelID string, prompt core.Prompt, sessionID string) (string, int64) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.gateway.Complete(gctx, modelID, prompt)
	elapsed := time.Since(start).Milliseconds()

	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		s.log.Warnw("inference failed, using fallback reply",
			"session_id", sessionID, "model", modelID, "elapsed_ms", elapsed, "err", err)
		return FallbackReply, elapsed
	}
	return strings.TrimSpace(reply), elapsed
}

type CreateSessionInput struct {
	DocumentID string
	Title      string
	ModelName  string
}

func (s *ChatService) CreateSession(ctx context.Context, userID string, in CreateSessionInput) (*models.ChatSession, error) {
	var doc *models.Document
	if in.DocumentID != "" {
		d, err := s.ownedDocument(ctx, userID, in.DocumentID)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, fmt.Errorf("%w: document", ErrNotFound)
		}
		doc = d
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultTitle
	}
	return s.newSession(ctx, userID, titleFrom(title), s.catalog.Resolve(in.ModelName).ID, doc)
}

func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	sessions, err := s.db.ListChatSessions(ctx, userID, sessionListLimit)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}
	return sessions, nil
}

// ListMessages returns the session log in insertion order. Archived sessions stay readable by their owner.
func (s *ChatService) ListMessages(ctx context.Context, userID, sessionID string) ([]models.ChatMessage, error) {
	if !validID(sessionID) {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	session, err := s.db.GetChatSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	msgs, err := s.db.ListChatMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

func (s *ChatService) ArchiveSession(ctx context.Context, userID, sessionID string) error {
	if !validID(sessionID) {
		return fmt.Errorf("%w: session", ErrNotFound)
	}
	ok, err := s.db.ArchiveChatSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: session", ErrNotFound)
	}
	return nil
}

func (s *ChatService) Models() []llm.Model {
	return s.catalog.Models()
}

func (s *ChatService) newSession(ctx context.Context, userID, title, modelID string, doc *models.Document) (*models.ChatSession, error) {
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		ModelName: modelID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc != nil {
		session.DocumentID = &doc.ID
	}
	if err := s.db.CreateChatSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// activeSession loads a session owned by userID. Foreign, missing and archived sessions look the same.
func (s *ChatService) activeSession(ctx context.Context, userID, sessionID string) (*models.ChatSession, error) {
	if !validID(sessionID) {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	session, err := s.db.GetChatSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsArchived {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	return session, nil
}

// ownedDocument returns nil without error when the document is missing or foreign.
func (s *ChatService) ownedDocument(ctx context.Context, userID, docID string) (*models.Document, error) {
	if !validID(docID) {
		return nil, nil
	}
	return s.db.GetDocumentForUser(ctx, docID, userID)
}

func (s *ChatService) appendMessage(ctx context.Context, sessionID string, role models.MessageRole, content string, modelUsed *string, elapsed *int64) error {
	return s.db.AddChatMessage(ctx, &models.ChatMessage{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		Role:             role,
		Content:          content,
		ModelUsed:        modelUsed,
		ProcessingTimeMs: elapsed,
		CreatedAt:        time.Now().UTC(),
	})
}

func titleFrom(message string) string {
	r := []rune(strings.TrimSpace(message))
	if len(r) > titleRunes {
		r = r[:titleRunes]
	}
	return string(r)
}

func documentContext(doc *models.Document) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nType: %s\nFilename: %s", doc.Title, doc.DocumentType, doc.FileName)
	if doc.Excerpt != nil && strings.TrimSpace(*doc.Excerpt) != "" {
		fmt.Fprintf(&b, "\nExcerpt:\n%s", strings.TrimSpace(*doc.Excerpt))
	}
	return b.String()
}
