// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an identity record. Password credentials are stored as a bcrypt
// hash and never leave the server.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time

	// Aggregates computed from owned file rows, not stored.
	FilesCount    int64
	TotalFileSize int64
}
