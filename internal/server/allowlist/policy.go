// Package allowlist decides whether a registration may proceed. Two
// policies are available: AllowListPolicy admits any email on the static
// list or on an active alumni record, StrictAlumniMatchPolicy additionally
// requires the submitted names to match the alumni record.
package allowlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

const (
	PolicyAllowList = "allowlist"
	PolicyStrict    = "strict"
)

// Reasons surfaced to the registrant on rejection.
const (
	ReasonNotListed    = "this email is not authorized to register"
	ReasonNoAlumni     = "no active alumni record was found for this email"
	ReasonNameMismatch = "the name does not match our alumni record for this email"
)

// Registrant is the part of a registration submission a policy inspects.
type Registrant struct {
	FirstName string
	LastName  string
	Email     string
}

// Policy authorizes a registrant. A rejection wraps common.ErrNotAuthorized
// with a user-facing reason; any other error is an infrastructure failure.
type Policy interface {
	Authorize(ctx context.Context, r Registrant) error
}

// AlumniFinder looks up an active alumni record by email and returns
// common.ErrorNotFound when there is none.
type AlumniFinder interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.Alumni, error)
}

// AllowListPolicy admits emails from a static set or an active alumni row.
type AllowListPolicy struct {
	emails map[string]struct{}
	alumni AlumniFinder
}

// NewAllowListPolicy lower-cases and trims every configured email.
func NewAllowListPolicy(emails []string, alumni AlumniFinder) *AllowListPolicy {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = common.NormalizeEmail(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return &AllowListPolicy{emails: set, alumni: alumni}
}

// IsAuthorizedRegistrant reports whether email is on the static list or
// belongs to an active alumni record. Comparison is case-insensitive.
func (p *AllowListPolicy) IsAuthorizedRegistrant(ctx context.Context, email string) (bool, error) {
	email = common.NormalizeEmail(email)
	if _, ok := p.emails[email]; ok {
		return true, nil
	}
	if p.alumni == nil {
		return false, nil
	}
	_, err := p.alumni.FindActiveByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (p *AllowListPolicy) Authorize(ctx context.Context, r Registrant) error {
	ok, err := p.IsAuthorizedRegistrant(ctx, r.Email)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrNotAuthorized, ReasonNotListed)
	}
	return nil
}

// StrictAlumniMatchPolicy requires first name, last name and email to match
// an active alumni record, all compared case-insensitively.
type StrictAlumniMatchPolicy struct {
	alumni AlumniFinder
}

func NewStrictAlumniMatchPolicy(alumni AlumniFinder) *StrictAlumniMatchPolicy {
	return &StrictAlumniMatchPolicy{alumni: alumni}
}

func (p *StrictAlumniMatchPolicy) Authorize(ctx context.Context, r Registrant) error {
	a, err := p.alumni.FindActiveByEmail(ctx, common.NormalizeEmail(r.Email))
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %s", common.ErrNotAuthorized, ReasonNoAlumni)
	}
	if err != nil {
		return err
	}
	if !sameName(a.FirstName, r.FirstName) || !sameName(a.LastName, r.LastName) {
		return fmt.Errorf("%w: %s", common.ErrNotAuthorized, ReasonNameMismatch)
	}
	return nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// New builds the policy named by kind. The static list only applies to the
// allowlist policy.
func New(kind string, emails []string, alumni AlumniFinder) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", PolicyAllowList:
		return NewAllowListPolicy(emails, alumni), nil
	case PolicyStrict:
		return NewStrictAlumniMatchPolicy(alumni), nil
	default:
		return nil, fmt.Errorf("unknown registration policy %q", kind)
	}
}
