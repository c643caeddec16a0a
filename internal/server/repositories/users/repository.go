package users

import (
	"context"

	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetWithAggregates(ctx context.Context, id int64) (*models.User, error)
	ListWithAggregates(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	Delete(ctx context.Context, id int64) error
}
