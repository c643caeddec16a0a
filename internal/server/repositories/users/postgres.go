// Package users provides a PostgreSQL-backed repository for user records,
// including the derived file-count/total-size aggregates.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/dbx"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. Username collisions surface as ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, first_name, last_name, password_hash, is_admin)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsAdmin).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, username, email, first_name, last_name, password_hash, is_admin, created_at
		 FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.IsAdmin, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, first_name, last_name, password_hash, is_admin, created_at
		 FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.IsAdmin, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetWithAggregates loads a user together with the count and total byte size
// of their files. Users without files get zero aggregates.
func (r *PostgresRepository) GetWithAggregates(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.is_admin, u.created_at,
		        COUNT(f.id), COALESCE(SUM(f.size), 0)
		 FROM users u
		 LEFT JOIN files f ON f.owner_id = u.id
		 WHERE u.id = $1
		 GROUP BY u.id
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.IsAdmin, &user.CreatedAt,
		&user.FilesCount, &user.TotalFileSize)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// ListWithAggregates returns all users with their file aggregates, ordered
// by id.
func (r *PostgresRepository) ListWithAggregates(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.is_admin, u.created_at,
		        COUNT(f.id), COALESCE(SUM(f.size), 0)
		 FROM users u
		 LEFT JOIN files f ON f.owner_id = u.id
		 GROUP BY u.id
		 ORDER BY u.id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
			&user.PasswordHash, &user.IsAdmin, &user.CreatedAt,
			&user.FilesCount, &user.TotalFileSize); err != nil {
			return nil, err
		}
		result = append(result, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update mutates the profile fields (email, first/last name). The username,
// password hash and admin flag are managed by dedicated operations.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $2, first_name = $3, last_name = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.FirstName, user.LastName)
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

func (r *PostgresRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, isAdmin)
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

// Delete removes the user row. File rows cascade at the schema level; blob
// cleanup is the caller's responsibility.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

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
