// Package faqs persists the question and answer page.
package faqs

import (
	"context"
	"fmt"

	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

// PostgresRepository implements FAQ storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.FAQ) (*models.FAQ, error) {
	query :=
		`INSERT INTO faqs (question, answer, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, f.Question, f.Answer, f.CreatedBy).Scan(&f.ID, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.FAQ, error) {
	query := `SELECT f.id, f.question, f.answer, f.created_by, f.created_at, u.first_name || ' ' || u.last_name
		FROM faqs f JOIN users u ON u.id = f.created_by
		ORDER BY f.created_at DESC, f.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select faqs: %w", err)
	}
	defer rows.Close()

	var result []*models.FAQ
	for rows.Next() {
		var f models.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.CreatedBy, &f.CreatedAt, &f.CreatorName); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
