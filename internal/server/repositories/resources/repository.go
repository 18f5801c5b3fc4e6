package resources

import (
	"context"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Resource) (*models.Resource, error)
	GetByID(ctx context.Context, id int64) (*models.Resource, error)
	List(ctx context.Context) ([]*models.Resource, error)
	Delete(ctx context.Context, id int64) error
}
