// Package events persists calendar entries.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

const selectEvents = `SELECT e.id, e.title, e.description, e.date, e.location, e.created_by, e.created_at,
		u.first_name || ' ' || u.last_name
	FROM events e JOIN users u ON u.id = e.created_by`

// PostgresRepository implements event storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (title, description, date, location, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, e.Title, e.Description, e.Date, e.Location, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// List returns every event ordered by date.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.query(ctx, selectEvents+` ORDER BY e.date, e.id`)
}

// Upcoming returns at most limit events dated at or after from, soonest first.
func (r *PostgresRepository) Upcoming(ctx context.Context, from time.Time, limit int) ([]*models.Event, error) {
	return r.query(ctx, selectEvents+` WHERE e.date >= $1 ORDER BY e.date, e.id LIMIT $2`, from, limit)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.CreatedBy, &e.CreatedAt, &e.CreatorName); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
