package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mohammad-sahal/chat-app/internal/models"
	"github.com/mohammad-sahal/chat-app/internal/repositories"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListForUser(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string      `json:"name"`
		Avatar      string      `json:"avatar"`
		Description string      `json:"description"`
		Members     []uuid.UUID `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Members) == 0 {
		writeError(w, http.StatusBadRequest, "name and members are required")
		return
	}

	adminID := currentUserID(r)
	group := &models.Group{
		Name:        req.Name,
		Avatar:      req.Avatar,
		Description: req.Description,
		AdminID:     adminID,
		MemberIDs:   append(req.Members, adminID),
	}
	if err := s.groups.Create(r.Context(), group); err != nil {
		writeError(w, http.StatusBadRequest, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroup(w, r)
	if !ok {
		return
	}
	if !group.HasMember(currentUserID(r)) {
		writeError(w, http.StatusForbidden, "not a member of this group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroup(w, r)
	if !ok {
		return
	}
	if group.AdminID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "only admin can update group")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Avatar      *string `json:"avatar"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.groups.Update(r.Context(), group.ID, req.Name, req.Avatar, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update group")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroup(w, r)
	if !ok {
		return
	}
	if group.AdminID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "only admin can add members")
		return
	}

	var req struct {
		MemberID uuid.UUID `json:"memberId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MemberID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "memberId is required")
		return
	}

	err := s.groups.AddMember(r.Context(), group.ID, req.MemberID)
	if errors.Is(err, repositories.ErrAlreadyMember) {
		writeError(w, http.StatusBadRequest, "member already in group")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	updated, err := s.groups.GetByID(r.Context(), group.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroup(w, r)
	if !ok {
		return
	}
	if group.AdminID != currentUserID(r) {
		writeError(w, http.StatusForbidden, "only admin can remove members")
		return
	}

	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member ID")
		return
	}
	if memberID == currentUserID(r) {
		writeError(w, http.StatusBadRequest, "admin cannot remove themselves")
		return
	}

	if err := s.groups.RemoveMember(r.Context(), group.ID, memberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusNotFound, "member not in group")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	updated, err := s.groups.GetByID(r.Context(), group.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// loadGroup parses the groupID URL param and fetches the group, writing the
// appropriate error response on failure.
func (s *Server) loadGroup(w http.ResponseWriter, r *http.Request) (*models.Group, bool) {
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group ID")
		return nil, false
	}

	group, err := s.groups.GetByID(r.Context(), groupID)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return nil, false
	}
	return group, true
}
