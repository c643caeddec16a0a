package httpapi

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/logging"
	"github.com/ssemyonovs/cloudvault/internal/server/auth"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
	"github.com/ssemyonovs/cloudvault/internal/server/services"
)

const testSecret = "test-secret"

type nopLogger struct{}

func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeUserSvc struct {
	registerResp *models.User
	registerErr  error

	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	logoutErr error

	// byID backs the auth middleware
	byID map[int64]*models.User

	profileResp *models.User
	profileErr  error

	listResp []*models.User
	listErr  error

	getResp *models.User
	getErr  error

	updateResp *models.User
	updateErr  error

	toggleResp *models.User
	toggleErr  error

	deleteErr error
}

func (f *fakeUserSvc) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	return f.registerResp, f.registerErr
}
func (f *fakeUserSvc) Login(ctx context.Context, username, password string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeUserSvc) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}
func (f *fakeUserSvc) Logout(ctx context.Context, userID int64) error { return f.logoutErr }
func (f *fakeUserSvc) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}
func (f *fakeUserSvc) Profile(ctx context.Context, id int64) (*models.User, error) {
	return f.profileResp, f.profileErr
}
func (f *fakeUserSvc) ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error) {
	return f.listResp, f.listErr
}
func (f *fakeUserSvc) GetUser(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	return f.getResp, f.getErr
}
func (f *fakeUserSvc) UpdateUser(ctx context.Context, actor *models.User, id int64, req *services.UpdateUserRequest) (*models.User, error) {
	return f.updateResp, f.updateErr
}
func (f *fakeUserSvc) ToggleAdmin(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	return f.toggleResp, f.toggleErr
}
func (f *fakeUserSvc) DeleteUser(ctx context.Context, actor *models.User, id int64) error {
	return f.deleteErr
}

type fakeFileSvc struct {
	uploadResp *models.File
	uploadErr  error
	uploadName string
	uploadSize int64
	uploadBody []byte

	downloadResp *models.File
	downloadBody []byte
	downloadErr  error

	sharedResp *models.File
	sharedBody []byte
	sharedErr  error

	infoResp *models.File
	infoErr  error

	commentResp *models.File
	commentErr  error
	commentSeen *string

	deleteErr error

	listResp   []*models.File
	listErr    error
	listTarget int64

	listForResp []*models.File
	listForErr  error
}

func (f *fakeFileSvc) Upload(ctx context.Context, actor *models.User, originalName string, size int64, content io.Reader, comment string) (*models.File, error) {
	f.uploadName = originalName
	f.uploadSize = size
	if content != nil {
		f.uploadBody, _ = io.ReadAll(content)
	}
	return f.uploadResp, f.uploadErr
}
func (f *fakeFileSvc) Download(ctx context.Context, actor *models.User, id int64) (*models.File, io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, nil, f.downloadErr
	}
	return f.downloadResp, io.NopCloser(bytes.NewReader(f.downloadBody)), nil
}
func (f *fakeFileSvc) DownloadShared(ctx context.Context, token string) (*models.File, io.ReadCloser, error) {
	if f.sharedErr != nil {
		return nil, nil, f.sharedErr
	}
	return f.sharedResp, io.NopCloser(bytes.NewReader(f.sharedBody)), nil
}
func (f *fakeFileSvc) ShareInfo(ctx context.Context, token string) (*models.File, error) {
	return f.infoResp, f.infoErr
}
func (f *fakeFileSvc) UpdateComment(ctx context.Context, actor *models.User, id int64, comment string) (*models.File, error) {
	f.commentSeen = &comment
	return f.commentResp, f.commentErr
}
func (f *fakeFileSvc) AdminDelete(ctx context.Context, actor *models.User, id int64) error {
	return f.deleteErr
}
func (f *fakeFileSvc) List(ctx context.Context, actor *models.User, targetUserID int64) ([]*models.File, error) {
	f.listTarget = targetUserID
	return f.listResp, f.listErr
}
func (f *fakeFileSvc) ListFor(ctx context.Context, actor *models.User, targetUserID int64) ([]*models.File, error) {
	return f.listForResp, f.listForErr
}

// ---- helpers ----

func newTestServer(u *fakeUserSvc, f *fakeFileSvc) *Server {
	if u.byID == nil {
		u.byID = map[int64]*models.User{}
	}
	return &Server{
		address:   "127.0.0.1:0",
		users:     u,
		files:     f,
		logger:    nopLogger{},
		jwtSecret: []byte(testSecret),
	}
}

// authorize registers the user with the fake and returns a valid bearer header.
func authorize(t *testing.T, u *fakeUserSvc, user *models.User) string {
	t.Helper()
	u.byID[user.ID] = user
	token, err := auth.GenerateToken(user.ID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("token generation error: %v", err)
	}
	return "Bearer " + token
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, filename, comment string, body []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("multipart error: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("multipart write error: %v", err)
	}
	if comment != "" {
		if err := mw.WriteField("comment", comment); err != nil {
			t.Fatalf("multipart field error: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close error: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
