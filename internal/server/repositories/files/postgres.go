// Package files provides a PostgreSQL-backed repository for file metadata
// rows. The uniqueness constraints on (owner_id, original_name), storage_key
// and share_token live in the schema; this package translates their
// violations into the conflict sentinel.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/dbx"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner_id, original_name, storage_key, size, uploaded_at, last_download, comment, share_token`

func scanFile(row *sql.Row) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.OwnerID, &f.OriginalName, &f.StorageKey, &f.Size,
		&f.UploadedAt, &f.LastDownload, &f.Comment, &f.ShareToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// Create inserts a new file row. A race on (owner_id, original_name),
// storage_key or share_token uniqueness surfaces as ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (owner_id, original_name, storage_key, size, comment, share_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.OriginalName, file.StorageKey, file.Size, file.Comment, file.ShareToken).
		Scan(&file.ID, &file.UploadedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByShareToken(ctx context.Context, token string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE share_token = $1`
	return scanFile(r.db.QueryRowContext(ctx, query, token))
}

// ListByOwner returns the owner's files, newest uploads first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1 ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.OriginalName, &f.StorageKey, &f.Size,
			&f.UploadedAt, &f.LastDownload, &f.Comment, &f.ShareToken); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// NameExists reports whether the owner already has a file under this display
// name. It backs the upload de-duplication probe loop.
func (r *PostgresRepository) NameExists(ctx context.Context, ownerID int64, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM files WHERE owner_id = $1 AND original_name = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ownerID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateComment(ctx context.Context, id int64, comment string) error {
	query := `UPDATE files SET comment = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, comment)
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

// TouchLastDownload records a successful download timestamp.
func (r *PostgresRepository) TouchLastDownload(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE files SET last_download = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM files WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
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

// StorageKeysByOwner lists the blob keys of all files owned by ownerID.
// Used for blob cleanup when a user is deleted.
func (r *PostgresRepository) StorageKeysByOwner(ctx context.Context, ownerID int64) ([]string, error) {
	query := `SELECT storage_key FROM files WHERE owner_id = $1`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
