package files

import (
	"context"
	"time"

	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	GetByShareToken(ctx context.Context, token string) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.File, error)
	NameExists(ctx context.Context, ownerID int64, name string) (bool, error)
	UpdateComment(ctx context.Context, id int64, comment string) error
	TouchLastDownload(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	StorageKeysByOwner(ctx context.Context, ownerID int64) ([]string, error)
}
