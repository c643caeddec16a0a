package httpapi

import (
	"net/http"

	"github.com/ssemyonovs/cloudvault/internal/server/services"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newUserResponses(users))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.users.GetUser(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req services.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.users.UpdateUser(r.Context(), actorFromContext(r.Context()), id, &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.users.DeleteUser(r.Context(), actorFromContext(r.Context()), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	user, err := s.users.ToggleAdmin(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleUserFiles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	files, err := s.files.ListFor(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, newFileResponses(files))
}
