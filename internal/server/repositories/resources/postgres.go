// Package resources persists metadata of uploaded library files. The file
// bytes themselves live in blob storage.
package resources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

const selectResources = `SELECT r.id, r.title, r.description, r.storage_key, r.file_name, r.file_size,
		r.file_type, r.uploaded_by, r.created_at, u.first_name || ' ' || u.last_name
	FROM resources r JOIN users u ON u.id = r.uploaded_by`

// PostgresRepository implements resource storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, res *models.Resource) (*models.Resource, error) {
	query :=
		`INSERT INTO resources (title, description, storage_key, file_name, file_size, file_type, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		res.Title, res.Description, res.StorageKey, res.FileName, res.FileSize, res.FileType, res.UploadedBy,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "resources_storage_key_key") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Resource, error) {
	res, err := scan(r.db.QueryRowContext(ctx, selectResources+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

// List returns resources newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Resource, error) {
	rows, err := r.db.QueryContext(ctx, selectResources+` ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select resources: %w", err)
	}
	defer rows.Close()

	var result []*models.Resource
	for rows.Next() {
		res, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the row. A missing id yields common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Resource, error) {
	var res models.Resource
	err := s.Scan(&res.ID, &res.Title, &res.Description, &res.StorageKey, &res.FileName,
		&res.FileSize, &res.FileType, &res.UploadedBy, &res.CreatedAt, &res.UploaderName)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
