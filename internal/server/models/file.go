package models

import (
	"database/sql"
	"time"
)

// File describes one uploaded artifact. The content itself lives in blob
// storage under StorageKey; this row is the metadata record of truth.
type File struct {
	ID int64
	// OwnerID is the owning user, immutable after creation.
	OwnerID int64
	// OriginalName is the display name, unique per owner. It is only ever
	// changed by the upload-time de-duplication, never by user edit.
	OriginalName string
	// StorageKey is the globally unique blob key, user_<owner>/<hex><ext>.
	StorageKey string
	// Size in bytes, set at upload.
	Size int64
	// UploadedAt is set at creation.
	UploadedAt time.Time
	// LastDownload is updated on every successful download, including
	// downloads through a share link.
	LastDownload sql.NullTime
	// Comment is free text, mutable by the owner only.
	Comment string
	// ShareToken is a random unguessable identifier, generated once at
	// creation and never rotated.
	ShareToken string
}
