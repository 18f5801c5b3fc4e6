package alumni

import (
	"context"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Alumni) (*models.Alumni, error)
	GetByID(ctx context.Context, id int64) (*models.Alumni, error)
	FindActiveByEmail(ctx context.Context, email string) (*models.Alumni, error)
	ExistsEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*models.Alumni, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Alumni, error)
}
