package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func (s *Server) handleGetPrivateMessages(w http.ResponseWriter, r *http.Request) {
	otherID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if _, err := s.users.GetByID(r.Context(), otherID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	page, limit := pagination(r)
	messages, err := s.messages.ListPrivate(r.Context(), currentUserID(r), otherID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleGetGroupMessages(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroup(w, r)
	if !ok {
		return
	}
	if !group.HasMember(currentUserID(r)) {
		writeError(w, http.StatusForbidden, "not a member of this group")
		return
	}

	page, limit := pagination(r)
	messages, err := s.messages.ListGroup(r.Context(), group.ID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleMessageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.messages.Stats(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageIDs []uuid.UUID `json:"messageIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.MessageIDs) == 0 {
		writeError(w, http.StatusBadRequest, "messageIds must be a non-empty array")
		return
	}

	userID := currentUserID(r)
	modified := 0
	for _, id := range req.MessageIDs {
		added, err := s.messages.MarkRead(r.Context(), id, userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to mark messages read")
			return
		}
		if added {
			modified++
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": modified})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message ID")
		return
	}

	message, err := s.messages.GetByID(r.Context(), messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load message")
		return
	}
	if message.SenderID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "you can only delete your own messages")
		return
	}

	if err := s.messages.Delete(r.Context(), messageID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
