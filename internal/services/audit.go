package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/models"
)

const (
	AuditRegister = "register"
	AuditLogin    = "login"
	AuditUpload   = "upload"
	AuditDelete   = "delete"
)

// recordAudit writes an audit entry. Failures are logged and never fail the caller.
func recordAudit(ctx context.Context, db core.DbClient, log *zap.SugaredLogger, userID, action, resource string) {
	entry := &models.AuditLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		Action:       action,
		ResourceType: resource,
		Status:       "success",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.InsertAuditLog(context.WithoutCancel(ctx), entry); err != nil {
		log.Warnw("audit log write failed", "user_id", userID, "action", action, "err", err)
	}
}
