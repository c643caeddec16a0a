// Package httpapi exposes the file storage service over HTTP. Handlers stay
// thin: they decode the request, call a service, and translate typed errors
// into status codes.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ssemyonovs/cloudvault/internal/logging"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
	"github.com/ssemyonovs/cloudvault/internal/server/services"
)

// userSvc and fileSvc are the slices of the service layer the handlers
// depend on. Tests substitute fakes.
type userSvc interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID int64) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Profile(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error)
	GetUser(ctx context.Context, actor *models.User, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, id int64, req *services.UpdateUserRequest) (*models.User, error)
	ToggleAdmin(ctx context.Context, actor *models.User, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, id int64) error
}

type fileSvc interface {
	Upload(ctx context.Context, actor *models.User, originalName string, size int64, content io.Reader, comment string) (*models.File, error)
	Download(ctx context.Context, actor *models.User, id int64) (*models.File, io.ReadCloser, error)
	DownloadShared(ctx context.Context, token string) (*models.File, io.ReadCloser, error)
	ShareInfo(ctx context.Context, token string) (*models.File, error)
	UpdateComment(ctx context.Context, actor *models.User, id int64, comment string) (*models.File, error)
	AdminDelete(ctx context.Context, actor *models.User, id int64) error
	List(ctx context.Context, actor *models.User, targetUserID int64) ([]*models.File, error)
	ListFor(ctx context.Context, actor *models.User, targetUserID int64) ([]*models.File, error)
}

type Server struct {
	address   string
	users     userSvc
	files     fileSvc
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(a string, l logging.Logger, us userSvc, fs fileSvc, secretKey string) (*Server, error) {
	return &Server{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		files:     fs,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Handler builds the route table. Split out from Run so tests can drive the
// mux through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.Handle("POST /auth/logout", s.withActor(s.handleLogout))
	mux.Handle("GET /auth/me", s.withActor(s.handleMe))

	mux.Handle("GET /users", s.withActor(s.handleListUsers))
	mux.Handle("GET /users/{id}", s.withActor(s.handleGetUser))
	mux.Handle("PATCH /users/{id}", s.withActor(s.handleUpdateUser))
	mux.Handle("DELETE /users/{id}", s.withActor(s.handleDeleteUser))
	mux.Handle("PATCH /users/{id}/set_admin", s.withActor(s.handleSetAdmin))
	mux.Handle("GET /users/{id}/files", s.withActor(s.handleUserFiles))

	mux.Handle("GET /files", s.withActor(s.handleListFiles))
	mux.Handle("POST /files", s.withActor(s.handleUpload))
	mux.Handle("GET /files/{id}/download", s.withActor(s.handleDownload))
	mux.Handle("PATCH /files/{id}/update_comment", s.withActor(s.handleUpdateComment))
	mux.Handle("DELETE /files/{id}/admin_delete", s.withActor(s.handleAdminDelete))

	mux.HandleFunc("GET /share/{token}", s.handleSharedDownload)
	mux.HandleFunc("GET /share/{token}/info", s.handleShareInfo)

	return mux
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
