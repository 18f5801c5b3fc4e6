package events

import (
	"context"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Event) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Upcoming(ctx context.Context, from time.Time, limit int) ([]*models.Event, error)
}
