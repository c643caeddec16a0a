package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/dbx"
	"github.com/ssemyonovs/cloudvault/internal/logging"
	"github.com/ssemyonovs/cloudvault/internal/server/config"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
	filesrepo "github.com/ssemyonovs/cloudvault/internal/server/repositories/files"
	refreshtokensrepo "github.com/ssemyonovs/cloudvault/internal/server/repositories/refreshtokens"
	usersrepo "github.com/ssemyonovs/cloudvault/internal/server/repositories/users"
)

// --- shared helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

// --- fake users repository ---

type fakeUsersRepo struct {
	nextID    int64
	users     map[int64]*models.User
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	} else if u.ID > f.nextID {
		f.nextID = u.ID
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, e := range f.users {
		if e.Username == u.Username {
			return nil, common.ErrorConflict
		}
	}
	u.CreatedAt = time.Now()
	return f.add(u), nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetWithAggregates(ctx context.Context, id int64) (*models.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUsersRepo) ListWithAggregates(ctx context.Context) ([]*models.User, error) {
	var result []*models.User
	for _, u := range f.users {
		result = append(result, u)
	}
	return result, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsersRepo) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.users, id)
	return nil
}

// --- fake files repository ---

type fakeFilesRepo struct {
	nextID        int64
	files         map[int64]*models.File
	createErr     error
	nameExistsErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{files: map[int64]*models.File{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, e := range f.files {
		if e.OwnerID == file.OwnerID && e.OriginalName == file.OriginalName {
			return nil, common.ErrorConflict
		}
	}
	f.nextID++
	file.ID = f.nextID
	file.UploadedAt = time.Now()
	f.files[file.ID] = file
	return file, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id int64) (*models.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFilesRepo) GetByShareToken(ctx context.Context, token string) (*models.File, error) {
	for _, file := range f.files {
		if file.ShareToken == token {
			return file, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFilesRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*models.File, error) {
	var result []*models.File
	for _, file := range f.files {
		if file.OwnerID == ownerID {
			result = append(result, file)
		}
	}
	return result, nil
}

func (f *fakeFilesRepo) NameExists(ctx context.Context, ownerID int64, name string) (bool, error) {
	if f.nameExistsErr != nil {
		return false, f.nameExistsErr
	}
	for _, file := range f.files {
		if file.OwnerID == ownerID && file.OriginalName == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFilesRepo) UpdateComment(ctx context.Context, id int64, comment string) error {
	file, ok := f.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	file.Comment = comment
	return nil
}

func (f *fakeFilesRepo) TouchLastDownload(ctx context.Context, id int64, at time.Time) error {
	file, ok := f.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	file.LastDownload = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.files, id)
	return nil
}

func (f *fakeFilesRepo) StorageKeysByOwner(ctx context.Context, ownerID int64) ([]string, error) {
	var keys []string
	for _, file := range f.files {
		if file.OwnerID == ownerID {
			keys = append(keys, file.StorageKey)
		}
	}
	return keys, nil
}

// --- fake refresh token repository ---

type fakeRefreshRepo struct {
	tokens    map[string]*models.RefreshToken
	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteByUser(ctx context.Context, userID int64) error {
	for token, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, token)
		}
	}
	return nil
}

// --- fake repository manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFilesRepo
	r *fakeRefreshRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), f: newFakeFilesRepo(), r: newFakeRefreshRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error             { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                   { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository   { return m.r }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository                   { return m.f }

// --- fake blob store ---

type fakeBlobStore struct {
	data   map[string][]byte
	putErr error
	delErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{data: map[string][]byte{}}
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.data[key] = b
	return nil
}

func (s *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := s.data[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.data, key)
	return nil
}
