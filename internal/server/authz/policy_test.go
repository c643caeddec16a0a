package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

func TestCanAccessFile(t *testing.T) {
	owner := &models.User{ID: 1}
	other := &models.User{ID: 2}
	admin := &models.User{ID: 3, IsAdmin: true}

	tests := []struct {
		name    string
		actor   *models.User
		action  Action
		ownerID int64
		want    bool
	}{
		{"owner downloads own file", owner, ActionDownload, 1, true},
		{"admin downloads any file", admin, ActionDownload, 1, true},
		{"stranger cannot download", other, ActionDownload, 1, false},
		{"nil actor denied", nil, ActionDownload, 1, false},

		{"owner edits own comment", owner, ActionUpdateComment, 1, true},
		{"admin cannot edit comment of others", admin, ActionUpdateComment, 1, false},
		{"stranger cannot edit comment", other, ActionUpdateComment, 1, false},

		{"admin deletes", admin, ActionDelete, 1, true},
		{"owner cannot delete", owner, ActionDelete, 1, false},

		{"owner lists own files", owner, ActionList, 1, true},
		{"admin lists any files", admin, ActionList, 1, true},
		{"stranger cannot list others", other, ActionList, 1, false},

		{"upload scoped to self", owner, ActionUpload, 1, true},
		{"upload for someone else denied", owner, ActionUpload, 2, false},

		{"unknown action denied", admin, Action(99), 1, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccessFile(tc.actor, tc.action, tc.ownerID))
		})
	}
}

func TestCanManageUsers(t *testing.T) {
	assert.True(t, CanManageUsers(&models.User{ID: 1, IsAdmin: true}))
	assert.False(t, CanManageUsers(&models.User{ID: 1}))
	assert.False(t, CanManageUsers(nil))
}
