package services

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/repomanager"
)

type AlumniInput struct {
	FirstName      string
	LastName       string
	Email          string
	GraduationYear *int
	Company        string
	Position       string
}

// ImportReport summarizes a roster import.
type ImportReport struct {
	Added      int
	Duplicates int
	Errors     []string
}

// AlumniService manages the alumni roster.
type AlumniService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	compoundFirstNames []string
	log                logging.Logger
}

func NewAlumniService(db *sql.DB, m repomanager.RepositoryManager, compoundFirstNames []string, log logging.Logger) *AlumniService {
	return &AlumniService{db: db, repomanager: m, compoundFirstNames: compoundFirstNames, log: log.With("module", "alumni")}
}

// AddAlumni creates an active roster record. Admin only.
func (s *AlumniService) AddAlumni(ctx context.Context, actor *models.User, in AlumniInput) (*models.Alumni, error) {
	if err := Authorize(actor, ManageAlumni, 0); err != nil {
		return nil, err
	}
	return s.add(ctx, in)
}

func (s *AlumniService) add(ctx context.Context, in AlumniInput) (*models.Alumni, error) {
	in.Email = common.NormalizeEmail(in.Email)
	if err := required("first name", in.FirstName); err != nil {
		return nil, err
	}
	if err := required("last name", in.LastName); err != nil {
		return nil, err
	}
	if err := validEmail(in.Email); err != nil {
		return nil, err
	}
	if in.GraduationYear != nil && (*in.GraduationYear < 1900 || *in.GraduationYear > 3000) {
		return nil, fmt.Errorf("%w: graduation year %d is out of range", common.ErrValidation, *in.GraduationYear)
	}

	a := &models.Alumni{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          in.Email,
		GraduationYear: in.GraduationYear,
		Company:        strings.TrimSpace(in.Company),
		Position:       strings.TrimSpace(in.Position),
		IsActive:       true,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Alumni(tx)
		exists, err := repo.ExistsEmail(ctx, a.Email)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAlreadyExists
		}
		a, err = repo.Create(ctx, a)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s is already on the roster", common.ErrDuplicateAlumni, in.Email)
		}
		s.log.Error(ctx, "create alumni failed", "error", err)
		return nil, common.ErrorInternal
	}
	return a, nil
}

// ListAlumni returns the roster sorted by last name. Admin only.
func (s *AlumniService) ListAlumni(ctx context.Context, actor *models.User) ([]*models.Alumni, error) {
	if err := Authorize(actor, ManageAlumni, 0); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Alumni(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list alumni failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// SetActive activates or deactivates a roster record. An inactive record
// no longer authorizes registrations. Admin only.
func (s *AlumniService) SetActive(ctx context.Context, actor *models.User, id int64, active bool) (*models.Alumni, error) {
	if err := Authorize(actor, ManageAlumni, 0); err != nil {
		return nil, err
	}
	var a *models.Alumni
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		a, err = s.repomanager.Alumni(tx).SetActive(ctx, id, active)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "set alumni active failed", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return a, nil
}

// ImportAlumni loads a tab-separated roster of "Name<TAB>Email" lines. A
// leading header line is skipped. Rows already on the roster are counted
// as duplicates; malformed rows are reported and skipped.
func (s *AlumniService) ImportAlumni(ctx context.Context, r io.Reader) (*ImportReport, error) {
	report := &ImportReport{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) != 2 {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: expected 2 tab-separated columns, got %d", lineNo, len(cols)))
			continue
		}
		name, email := strings.TrimSpace(cols[0]), strings.TrimSpace(cols[1])
		if lineNo == 1 && !strings.Contains(email, "@") {
			continue
		}

		first, last := ParseName(name, s.compoundFirstNames)
		if last == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %q has no last name", lineNo, name))
			continue
		}

		_, err := s.add(ctx, AlumniInput{FirstName: first, LastName: last, Email: email})
		switch {
		case err == nil:
			report.Added++
		case errors.Is(err, common.ErrDuplicateAlumni):
			report.Duplicates++
		case errors.Is(err, common.ErrValidation):
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
		default:
			return report, err
		}
	}
	if err := sc.Err(); err != nil {
		return report, fmt.Errorf("read roster: %w", err)
	}

	s.log.Info(ctx, "roster imported", "added", report.Added, "duplicates", report.Duplicates, "errors", len(report.Errors))
	return report, nil
}

// ParseName splits a full name into first and last name. One word is a
// first name only, two words are first and last. Longer names take the
// first word as the first name unless they start with one of the compound
// first names, e.g. "Juan Carlos Perez Garcia".
func ParseName(full string, compound []string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	case 2:
		return parts[0], parts[1]
	}

	normalized := strings.Join(parts, " ")
	for _, c := range compound {
		cw := strings.Fields(c)
		if len(cw) == 0 || len(cw) >= len(parts) {
			continue
		}
		prefix := strings.Join(parts[:len(cw)], " ")
		if strings.EqualFold(prefix, strings.Join(cw, " ")) {
			return prefix, strings.Join(parts[len(cw):], " ")
		}
	}
	return parts[0], strings.TrimSpace(strings.TrimPrefix(normalized, parts[0]))
}
