package users

import (
	"context"

	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ConsumeVerificationToken(ctx context.Context, token string) (*models.User, error)
	HasAdmin(ctx context.Context) (bool, error)
}
