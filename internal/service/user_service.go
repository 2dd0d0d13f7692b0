package service

import (
	"context"
	"fmt"

	"github.com/agrolink/agrolink_api/internal/models"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// UserDirectory lists SMS users for the admin dashboard.
type UserDirectory interface {
	ListByStatus(ctx context.Context, status models.UserStatus, page, limit int) ([]models.User, int, error)
}

type UserService struct {
	users UserDirectory
}

func NewUserService(users UserDirectory) *UserService {
	return &UserService{users: users}
}

// List filters by status when one is given. An unknown status is an error.
func (s *UserService) List(ctx context.Context, status string, page, limit int) ([]models.User, int, error) {
	st := models.UserStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", utils.ErrInvalidPayload, status)
	}
	page, limit = utils.NormalizePage(page, limit)
	items, total, err := s.users.ListByStatus(ctx, st, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []models.User{}
	}
	return items, total, nil
}
