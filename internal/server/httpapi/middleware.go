package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/server/auth"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
)

type ctxKey string

const actorKey ctxKey = "actor"

// withActor authenticates the request via the Authorization header and loads
// the user record into the request context. Handlers behind it can assume
// actorFromContext returns a non-nil user.
func (s *Server) withActor(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(r.Context(), w, err)
			return
		}

		actor, err := s.users.GetByID(r.Context(), userID)
		if err != nil {
			// a valid token for a deleted user
			s.writeError(r.Context(), w, common.ErrorUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

func actorFromContext(ctx context.Context) *models.User {
	actor, _ := ctx.Value(actorKey).(*models.User)
	return actor
}

// pathID parses the {id} path segment. A malformed id behaves as a missing
// resource.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}
