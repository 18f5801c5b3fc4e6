// Package messages persists board posts and announcements.
package messages

import (
	"context"
	"fmt"

	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

// PostgresRepository implements message storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (title, content, author_id, message_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, m.Title, m.Content, m.AuthorID, m.MessageType).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// List returns messages newest first with the author's full name joined in.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*models.Message, error) {
	query := `SELECT m.id, m.title, m.content, m.author_id, m.message_type, m.created_at,
			u.first_name || ' ' || u.last_name
		FROM messages m JOIN users u ON u.id = m.author_id`

	var args []any
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" WHERE m.message_type = $%d", len(args))
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.AuthorID, &m.MessageType, &m.CreatedAt, &m.AuthorName); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
