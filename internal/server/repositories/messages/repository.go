package messages

import (
	"context"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

// ListFilter narrows List. An empty Type selects both message types and a
// non-positive Limit returns every row.
type ListFilter struct {
	Type  string
	Limit int
}

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	List(ctx context.Context, f ListFilter) ([]*models.Message, error)
}
