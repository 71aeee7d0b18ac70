package services

import (
	"context"

	"github.com/markdave123-py/counsel/internal/core"
	"github.com/markdave123-py/counsel/internal/models"
)

const userListLimit = 100

// AdminService backs the admin dashboard. Role checks happen in the HTTP layer.
type AdminService struct {
	db core.DbClient
}

func NewAdminService(db core.DbClient) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	return s.db.PlatformStats(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.db.ListUsers(ctx, userListLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
