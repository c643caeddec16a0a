package httpapi

import (
	"net/http"

	"github.com/ssemyonovs/cloudvault/internal/common"
)

// Share endpoints are unauthenticated: possession of the token is the
// authorization.

func (s *Server) handleSharedDownload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		s.writeError(r.Context(), w, common.ErrorNotFound)
		return
	}

	file, content, err := s.files.DownloadShared(r.Context(), token)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	defer content.Close()

	s.streamFile(w, r, file.OriginalName, file.Size, content)
}

func (s *Server) handleShareInfo(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		s.writeError(r.Context(), w, common.ErrorNotFound)
		return
	}

	file, err := s.files.ShareInfo(r.Context(), token)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newShareInfoResponse(file))
}
