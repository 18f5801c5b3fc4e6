// Package services contains server-side business logic: the registration
// and verification workflow, the login gate, role-scoped content and admin
// roster management. Services own transactions; repositories are obtained
// from the RepositoryManager bound to either the pool or the open tx.
package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
)

// Capability names an action that depends on the actor's role or on
// ownership of the record.
type Capability int

const (
	// PostContent covers creating messages, events, resources and FAQs.
	PostContent Capability = iota
	// ManageAlumni covers every roster operation.
	ManageAlumni
	// DeleteResource is granted to the uploader and to administrators.
	DeleteResource
)

// Authorize is the single place where role and ownership rules are checked.
// ownerID is only consulted for ownership-scoped capabilities.
func Authorize(actor *models.User, c Capability, ownerID int64) error {
	if actor == nil || actor.ID == 0 {
		return common.ErrorUnauthorized
	}
	switch c {
	case PostContent:
		return nil
	case ManageAlumni:
		if actor.IsAdmin {
			return nil
		}
		return fmt.Errorf("%w: administrator role required", common.ErrForbidden)
	case DeleteResource:
		if actor.IsAdmin || actor.ID == ownerID {
			return nil
		}
		return fmt.Errorf("%w: only the uploader or an administrator may delete this resource", common.ErrForbidden)
	default:
		return common.ErrForbidden
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", common.ErrValidation, field)
	}
	return nil
}

func validEmail(email string) error {
	if err := required("email", email); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q is not a valid email address", common.ErrValidation, email)
	}
	return nil
}
