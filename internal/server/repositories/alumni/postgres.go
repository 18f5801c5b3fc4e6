// Package alumni stores the roster of program graduates that registrations
// are checked against.
package alumni

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

const alumniColumns = `id, first_name, last_name, email, graduation_year, company, position, is_active, created_at`

// PostgresRepository implements alumni storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a roster row. The email is stored as given; callers
// normalize it. A duplicate email yields common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, a *models.Alumni) (*models.Alumni, error) {
	query :=
		`INSERT INTO alumni (first_name, last_name, email, graduation_year, company, position, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	var year sql.NullInt64
	if a.GraduationYear != nil {
		year = sql.NullInt64{Int64: int64(*a.GraduationYear), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		a.FirstName, a.LastName, a.Email, year, a.Company, a.Position, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "alumni_email_key") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Alumni, error) {
	return r.getOne(ctx, `SELECT `+alumniColumns+` FROM alumni WHERE id = $1`, id)
}

// FindActiveByEmail returns the active roster row for email, compared
// case-insensitively, or common.ErrorNotFound.
func (r *PostgresRepository) FindActiveByEmail(ctx context.Context, email string) (*models.Alumni, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni WHERE lower(email) = lower($1) AND is_active`
	return r.getOne(ctx, query, email)
}

// ExistsEmail reports whether any roster row, active or not, holds email.
func (r *PostgresRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM alumni WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// List returns the roster ordered by last and first name.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Alumni, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+alumniColumns+` FROM alumni ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select alumni: %w", err)
	}
	defer rows.Close()

	var result []*models.Alumni
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) (*models.Alumni, error) {
	query := `UPDATE alumni SET is_active = $2 WHERE id = $1 RETURNING ` + alumniColumns
	return r.getOne(ctx, query, id, active)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Alumni, error) {
	a, err := scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Alumni, error) {
	a := &models.Alumni{}
	var year sql.NullInt64
	if err := s.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &year,
		&a.Company, &a.Position, &a.IsActive, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		a.GraduationYear = &y
	}
	return a, nil
}
