// Package authz holds the authorization policy as a pure decision function,
// decoupled from the transport layer.
package authz

import "github.com/ssemyonovs/cloudvault/internal/server/models"

// Action enumerates the operations the policy decides on.
type Action int

const (
	// ActionList covers listing files. The target is the user whose files
	// are requested.
	ActionList Action = iota
	// ActionUpload covers uploading a file for oneself.
	ActionUpload
	// ActionDownload covers authenticated download of a file.
	ActionDownload
	// ActionUpdateComment covers editing a file's comment.
	ActionUpdateComment
	// ActionDelete covers hard-deleting a file.
	ActionDelete
	// ActionManageUsers covers user administration (list, edit, delete,
	// toggle admin flag).
	ActionManageUsers
)

// CanAccessFile decides whether actor may perform action on a file owned by
// ownerID. Share-link access is not decided here: possession of a valid
// share token is the authorization for that path.
func CanAccessFile(actor *models.User, action Action, ownerID int64) bool {
	if actor == nil {
		return false
	}
	switch action {
	case ActionDownload:
		return actor.IsAdmin || actor.ID == ownerID
	case ActionUpdateComment:
		// Narrower than download: admins do not get comment-edit rights.
		return actor.ID == ownerID
	case ActionDelete:
		return actor.IsAdmin
	case ActionUpload:
		return actor.ID == ownerID
	case ActionList:
		return actor.IsAdmin || actor.ID == ownerID
	default:
		return false
	}
}

// CanManageUsers decides whether actor may perform user-management actions.
func CanManageUsers(actor *models.User) bool {
	return actor != nil && actor.IsAdmin
}
