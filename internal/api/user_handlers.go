package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/models"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
)

const searchLimit = 10

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	currentID := currentUserID(r)

	users, err := s.users.List(r.Context(), currentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	s.overlayPresence(r, users)
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, []*models.User{})
		return
	}

	users, err := s.users.Search(r.Context(), q, currentUserID(r), searchLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search users")
		return
	}

	s.overlayPresence(r, users)
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), currentUserID(r))
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username *string `json:"username"`
		Avatar   *string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username != nil {
		if *req.Username == "" {
			writeError(w, http.StatusBadRequest, "username cannot be empty")
			return
		}
		existing, err := s.users.GetByUsername(r.Context(), *req.Username)
		if err == nil && existing.ID != currentUserID(r) {
			writeError(w, http.StatusBadRequest, "username already exists")
			return
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}
	}

	user, err := s.users.UpdateProfile(r.Context(), currentUserID(r), req.Username, req.Avatar)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// overlayPresence stamps live presence from the registry and last-seen
// timestamps from the status store onto a user listing. The registry wins
// for the online flag; Redis only fills in lastSeen.
func (s *Server) overlayPresence(r *http.Request, users []*models.User) {
	ids := make([]uuid.UUID, len(users))
	for i, user := range users {
		ids[i] = user.ID
	}

	statuses, err := s.status.GetBulkStatus(r.Context(), ids)
	if err != nil {
		statuses = nil
	}

	for _, user := range users {
		user.Online = s.registry.IsOnline(user.ID)
		if status, ok := statuses[user.ID]; ok && !status.LastSeen.IsZero() {
			lastSeen := status.LastSeen
			user.LastSeen = &lastSeen
		}
	}
}
