package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/ssemyonovs/cloudvault/internal/common"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	var targetUserID int64
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(r.Context(), w, fmt.Errorf("%w: invalid user_id", common.ErrorValidation))
			return
		}
		targetUserID = id
	}

	files, err := s.files.List(r.Context(), actorFromContext(r.Context()), targetUserID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newFileResponses(files))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	content, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: missing file part", common.ErrorValidation))
		return
	}
	defer content.Close()

	file, err := s.files.Upload(r.Context(), actorFromContext(r.Context()),
		header.Filename, header.Size, content, r.FormValue("comment"))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusCreated, newFileResponse(file))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	file, content, err := s.files.Download(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	defer content.Close()

	s.streamFile(w, r, file.OriginalName, file.Size, content)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	// a null comment is rejected, an empty string clears the field
	var req struct {
		Comment *string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	if req.Comment == nil {
		s.writeError(r.Context(), w, fmt.Errorf("%w: comment is required", common.ErrorValidation))
		return
	}

	file, err := s.files.UpdateComment(r.Context(), actorFromContext(r.Context()), id, *req.Comment)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newFileResponse(file))
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.files.AdminDelete(r.Context(), actorFromContext(r.Context()), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// streamFile writes a blob as an attachment download.
func (s *Server) streamFile(w http.ResponseWriter, r *http.Request, name string, size int64, content io.Reader) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))

	if _, err := io.Copy(w, content); err != nil {
		// headers are already out, all we can do is log
		s.logger.Error(r.Context(), "download stream interrupted", "file", name, "error", err.Error())
	}
}
