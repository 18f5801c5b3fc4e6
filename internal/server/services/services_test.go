package services

import (
	"testing"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	member := &models.User{ID: 2}
	admin := &models.User{ID: 1, IsAdmin: true}

	tests := []struct {
		name    string
		actor   *models.User
		c       Capability
		owner   int64
		wantErr error
	}{
		{"anonymous cannot post", nil, PostContent, 0, common.ErrorUnauthorized},
		{"zero user cannot post", &models.User{}, PostContent, 0, common.ErrorUnauthorized},
		{"member posts", member, PostContent, 0, nil},
		{"member cannot manage alumni", member, ManageAlumni, 0, common.ErrForbidden},
		{"admin manages alumni", admin, ManageAlumni, 0, nil},
		{"owner deletes", member, DeleteResource, 2, nil},
		{"non-owner cannot delete", member, DeleteResource, 3, common.ErrForbidden},
		{"admin deletes any", admin, DeleteResource, 3, nil},
		{"unknown capability", admin, Capability(99), 0, common.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.c, tt.owner)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
