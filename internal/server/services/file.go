package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/logging"
	"github.com/ssemyonovs/cloudvault/internal/server/authz"
	"github.com/ssemyonovs/cloudvault/internal/server/blob"
	"github.com/ssemyonovs/cloudvault/internal/server/config"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
	"github.com/ssemyonovs/cloudvault/internal/server/repositories/repomanager"
)

// FileService orchestrates uploads, downloads, share links, comment edits
// and deletion over the metadata repository and the blob store.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	blobs         blob.Store
	logger        logging.Logger
	shareTokenTTL time.Duration
}

// NewFileService constructs a FileService using repositories, the blob store
// and server config.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, cfg *config.Config, logger logging.Logger) *FileService {
	return &FileService{
		db:            db,
		repomanager:   m,
		blobs:         blobs,
		logger:        logger.With("module", "file_service"),
		shareTokenTTL: cfg.ShareTokenTTL,
	}
}

// newStorageKey builds a globally unique blob key namespaced under the
// owner: user_<id>/<random-hex><original extension>. Uniqueness comes from
// the random token, no lookup needed.
func newStorageKey(ownerID int64, originalName string) string {
	u := uuid.New()
	return fmt.Sprintf("user_%d/%s%s", ownerID, hex.EncodeToString(u[:]), path.Ext(originalName))
}

// dedupName probes for a free display name for the owner. If the name is
// taken, _1, _2, ... are appended before the extension until a free one is
// found. The loop terminates because each taken candidate consumes one
// suffix from a finite set of existing rows; the schema constraint remains
// the race-breaker for concurrent identical uploads.
func (s *FileService) dedupName(ctx context.Context, ownerID int64, name string) (string, error) {
	repo := s.repomanager.Files(s.db)

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for counter := 1; ; counter++ {
		exists, err := repo.NameExists(ctx, ownerID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

// Upload stores the content in the blob store and creates the metadata row.
// The display name is de-duplicated per owner; a lost race on the schema's
// uniqueness constraints surfaces as ErrorConflict, and the already-written
// blob is cleaned up so no orphan remains.
func (s *FileService) Upload(ctx context.Context, actor *models.User, originalName string, size int64, content io.Reader, comment string) (*models.File, error) {
	if content == nil || originalName == "" {
		return nil, fmt.Errorf("%w: no file was provided", common.ErrorValidation)
	}

	storageKey := newStorageKey(actor.ID, originalName)

	name, err := s.dedupName(ctx, actor.ID, originalName)
	if err != nil {
		return nil, fmt.Errorf("error probing file name: %w", err)
	}

	if err := s.blobs.Put(ctx, storageKey, content, size); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}

	file := &models.File{
		OwnerID:      actor.ID,
		OriginalName: name,
		StorageKey:   storageKey,
		Size:         size,
		Comment:      comment,
		ShareToken:   uuid.NewString(),
	}

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		// Keep metadata and blob consistent: the row did not land, so the
		// blob must not stay behind.
		if delErr := s.blobs.Delete(ctx, storageKey); delErr != nil {
			s.logger.Warn(ctx, "orphan blob cleanup failed", "storage_key", storageKey, "error", delErr.Error())
		}
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating file: %v", err)
	}

	return created, nil
}

// Download streams a file to its owner or an admin and records the download
// time. A metadata row whose blob is missing yields ErrorGone.
func (s *FileService) Download(ctx context.Context, actor *models.User, id int64) (*models.File, io.ReadCloser, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !authz.CanAccessFile(actor, authz.ActionDownload, file.OwnerID) {
		return nil, nil, common.ErrorForbidden
	}

	return s.openAndTouch(ctx, file)
}

// DownloadShared streams a file to any bearer of a valid share token.
// Possession of the token is the authorization.
func (s *FileService) DownloadShared(ctx context.Context, token string) (*models.File, io.ReadCloser, error) {
	file, err := s.lookupShared(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return s.openAndTouch(ctx, file)
}

// ShareInfo returns file metadata for a share token without streaming
// content or recording a download.
func (s *FileService) ShareInfo(ctx context.Context, token string) (*models.File, error) {
	return s.lookupShared(ctx, token)
}

// UpdateComment replaces the comment. Owner only; admins deliberately do not
// get comment-edit rights.
func (s *FileService) UpdateComment(ctx context.Context, actor *models.User, id int64, comment string) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessFile(actor, authz.ActionUpdateComment, file.OwnerID) {
		return nil, common.ErrorForbidden
	}

	if err := repo.UpdateComment(ctx, id, comment); err != nil {
		return nil, err
	}

	file.Comment = comment
	return file, nil
}

// AdminDelete removes the metadata row and then the blob. The row is the
// record of truth: a failed blob removal is logged as a warning, not
// surfaced as an error.
func (s *FileService) AdminDelete(ctx context.Context, actor *models.User, id int64) error {
	if !authz.CanAccessFile(actor, authz.ActionDelete, 0) {
		return common.ErrorForbidden
	}

	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn(ctx, "blob removal failed after delete", "storage_key", file.StorageKey, "error", err.Error())
	}

	s.logger.Info(ctx, "file deleted", "actor_id", actor.ID, "file_id", id, "owner_id", file.OwnerID)
	return nil
}

// List returns files visible to the actor, newest first. Admins may pass a
// non-zero targetUserID to view another user's files; for everyone else the
// filter is ignored and the actor sees their own files.
func (s *FileService) List(ctx context.Context, actor *models.User, targetUserID int64) ([]*models.File, error) {
	ownerID := actor.ID
	if targetUserID != 0 && actor.IsAdmin {
		ownerID = targetUserID
	}
	return s.repomanager.Files(s.db).ListByOwner(ctx, ownerID)
}

// ListFor returns the target user's files for the admin user-management
// view.
func (s *FileService) ListFor(ctx context.Context, actor *models.User, targetUserID int64) ([]*models.File, error) {
	if !authz.CanManageUsers(actor) {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Files(s.db).ListByOwner(ctx, targetUserID)
}

// --- helpers below ---

func (s *FileService) lookupShared(ctx context.Context, token string) (*models.File, error) {
	file, err := s.repomanager.Files(s.db).GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	// Expired links behave exactly like unknown tokens.
	if s.shareTokenTTL > 0 && time.Since(file.UploadedAt) > s.shareTokenTTL {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (s *FileService) openAndTouch(ctx context.Context, file *models.File) (*models.File, io.ReadCloser, error) {
	rc, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorGone
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}

	if err := s.repomanager.Files(s.db).TouchLastDownload(ctx, file.ID, time.Now()); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("error recording download: %v", err)
	}

	return file, rc, nil
}
