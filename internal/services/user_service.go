package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/auth"
	"github.com/markdave123-py/counsel/internal/core"
	db "github.com/markdave123-py/counsel/internal/core/database"
	"github.com/markdave123-py/counsel/internal/models"
)

const (
	minPasswordLen = 8
	recentActivity = 10
)

// dummyHash is compared against when no usable account matches, so a failed login
// costs one bcrypt comparison whether or not the email is registered.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("counsel-login-placeholder")
	return h
})

type UserService struct {
	db            core.DbClient
	tokens        *auth.TokenService
	log           *zap.SugaredLogger
	checkPassword func(hash, pw string) error
}

func NewUserService(db core.DbClient, tokens *auth.TokenService, log *zap.SugaredLogger) *UserService {
	return &UserService{db: db, tokens: tokens, log: log, checkPassword: auth.CheckPassword}
}

type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	Organization *string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || fullName == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrBadRequest)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrBadRequest)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrBadRequest, minPasswordLen)
	}

	existing, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if in.Organization != nil {
		org := strings.TrimSpace(*in.Organization)
		in.Organization = &org
		if org == "" {
			in.Organization = nil
		}
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         models.RoleUser,
		Organization: in.Organization,
		APIQuota:     models.DefaultAPIQuota,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.db, s.log, user.ID, AuditRegister, "user")
	s.log.Infow("user registered", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing email or password", ErrBadRequest)
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		_ = s.checkPassword(dummyHash(), password)
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err := s.checkPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if auth.IsLegacyHash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.db.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				s.log.Warnw("password rehash failed", "user_id", user.ID, "err", err)
			} else {
				user.PasswordHash = hash
			}
		}
	}

	if err := s.db.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warnw("touch last login failed", "user_id", user.ID, "err", err)
	} else {
		now := time.Now().UTC()
		user.LastLogin = &now
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.db, s.log, user.ID, AuditLogin, "user")
	return &AuthResult{Token: token, User: user}, nil
}

// Profile returns the caller's user record.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return user, nil
}

func (s *UserService) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	st, err := s.db.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity, err := s.db.ListAuditLogs(ctx, userID, recentActivity)
	if err != nil {
		return nil, err
	}
	st.RecentActivity = activity
	if st.RecentActivity == nil {
		st.RecentActivity = []models.AuditLog{}
	}
	return st, nil
}

// SeedAdmin creates an admin account with an unlimited quota when no user owns email yet.
func (s *UserService) SeedAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			s.log.Warnw("admin seed email belongs to a non-admin user", "user_id", existing.ID)
		}
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateUser(ctx, admin); err != nil && !errors.Is(err, db.ErrDuplicate) {
		return err
	}
	s.log.Infow("seeded admin user", "email", email)
	return nil
}
