package faqs

import (
	"context"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.FAQ) (*models.FAQ, error)
	List(ctx context.Context) ([]*models.FAQ, error)
}
