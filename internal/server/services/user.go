// Package services contains server-side business logic. This file implements
// UserService: registration, login, token refresh/logout, and the
// admin-facing user management operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/dbx"
	"github.com/ssemyonovs/cloudvault/internal/logging"
	"github.com/ssemyonovs/cloudvault/internal/server/auth"
	"github.com/ssemyonovs/cloudvault/internal/server/authz"
	"github.com/ssemyonovs/cloudvault/internal/server/blob"
	"github.com/ssemyonovs/cloudvault/internal/server/config"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
	"github.com/ssemyonovs/cloudvault/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterRequest is the validated registration payload. Usernames must
// start with a letter, contain only latin letters and digits, and be 4-20
// characters long.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" validate:"required,min=8"`
}

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]{3,19}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// error is only possible for an empty tag name
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegexp.MatchString(fl.Field().String())
	})
	return v
}

// UserService provides authentication and user management:
//   - Register / Login / RefreshToken / Logout
//   - profile and admin listings with file aggregates
//   - admin mutations (profile update, admin-flag toggle, delete with
//     blob cleanup)
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	blobs                        blob.Store
	logger                       logging.Logger
	validate                     *validator.Validate
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		blobs:                        blobs,
		logger:                       logger.With("module", "user_service"),
		validate:                     newValidator(),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new non-admin user after validating the payload.
// A taken username yields ErrorConflict.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return u, nil
}

// Login verifies the credentials and, on success, returns a new TokenPair.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout drops all refresh tokens issued to the user. Outstanding access
// tokens stay valid until their short expiry.
func (s *UserService) Logout(ctx context.Context, userID int64) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting refresh tokens: %v", err)
	}
	return nil
}

// GetByID loads a bare user record (no aggregates). Used by the HTTP
// middleware to resolve the authenticated actor.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// Profile returns the user together with file count and total byte size.
func (s *UserService) Profile(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetWithAggregates(ctx, id)
}

// ListUsers returns all users with aggregates. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Users(s.db).ListWithAggregates(ctx)
}

// GetUser returns one user with aggregates. Admin only.
func (s *UserService) GetUser(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Users(s.db).GetWithAggregates(ctx, id)
}

// UpdateUserRequest carries the mutable profile fields. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UpdateUser mutates profile fields of the target user. Admin only.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.User, id int64, req *UpdateUserRequest) (*models.User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, common.ErrorForbidden
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if err := repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return repo.GetWithAggregates(ctx, id)
}

// ToggleAdmin flips the target user's admin flag and returns the updated
// record. Admin only; the outcome is recorded in the operational log.
func (s *UserService) ToggleAdmin(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if !authz.CanManageUsers(actor) {
		return nil, common.ErrorForbidden
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := repo.SetAdmin(ctx, id, !user.IsAdmin); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "admin flag toggled", "actor_id", actor.ID, "target_id", id, "is_admin", !user.IsAdmin)

	return repo.GetWithAggregates(ctx, id)
}

// DeleteUser removes the user, their file rows (schema cascade) and, best
// effort, their blobs. Admin only.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, id int64) error {
	if !authz.CanManageUsers(actor) {
		return common.ErrorForbidden
	}

	// Collect blob keys before the cascade wipes the rows.
	keys, err := s.repomanager.Files(s.db).StorageKeysByOwner(ctx, id)
	if err != nil {
		return fmt.Errorf("error listing storage keys: %v", err)
	}

	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "blob cleanup failed", "storage_key", key, "error", err.Error())
		}
	}

	s.logger.Info(ctx, "user deleted", "actor_id", actor.ID, "target_id", id, "files_removed", len(keys))
	return nil
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
