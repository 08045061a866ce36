package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/platform/group"
	"github.com/divvyapp/divvy/internal/platform/user"
	"github.com/divvyapp/divvy/internal/transport/httpapi/middleware"
)

// GroupServiceInterface defines the group operations needed by GroupHandler
type GroupServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, ownerName, name string) (*group.Group, error)
	Get(ctx context.Context, groupID, userID uuid.UUID) (*group.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]group.Group, error)
	Rename(ctx context.Context, groupID, userID uuid.UUID, name string) (*group.Group, error)
	SetSimplifyDebts(ctx context.Context, groupID, userID uuid.UUID, enabled bool) (*group.Group, error)
	AddUser(ctx context.Context, groupID, callerID, userID uuid.UUID, displayName string) (*group.Member, error)
	AddGuest(ctx context.Context, groupID, callerID uuid.UUID, displayName string) (*group.Member, error)
	Leave(ctx context.Context, groupID, userID uuid.UUID) error
	RemoveGuest(ctx context.Context, groupID, callerID, memberID uuid.UUID) error
	Delete(ctx context.Context, groupID, userID uuid.UUID) error
}

// UserLookupInterface resolves users when adding members
type UserLookupInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService GroupServiceInterface
	users        UserLookupInterface
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService GroupServiceInterface, users UserLookupInterface) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		users:        users,
	}
}

// MemberResponse represents a group member
type MemberResponse struct {
	ID          string  `json:"id"`
	UserID      *string `json:"user_id,omitempty"`
	DisplayName string  `json:"display_name"`
	IsGuest     bool    `json:"is_guest"`
}

// GroupResponse represents a group
type GroupResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	OwnerID       string           `json:"owner_id"`
	SimplifyDebts bool             `json:"simplify_debts"`
	Members       []MemberResponse `json:"members"`
}

func toGroupResponse(g *group.Group) GroupResponse {
	members := make([]MemberResponse, 0, len(g.Members))
	for i := range g.Members {
		m := &g.Members[i]
		resp := MemberResponse{
			ID:          m.ID.String(),
			DisplayName: m.DisplayName,
			IsGuest:     m.IsGuest(),
		}
		if m.UserID != nil {
			id := m.UserID.String()
			resp.UserID = &id
		}
		members = append(members, resp)
	}
	return GroupResponse{
		ID:            g.ID.String(),
		Name:          g.Name,
		OwnerID:       g.OwnerID.String(),
		SimplifyDebts: g.SimplifyDebts,
		Members:       members,
	}
}

// CreateGroup handles POST /groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	caller, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to resolve user", http.StatusInternalServerError)
		return
	}

	g, err := h.groupService.Create(r.Context(), userID, caller.DisplayName, req.Name)
	if err != nil {
		if errors.Is(err, group.ErrInvalidGroupName) {
			respondError(w, "group name is required", http.StatusBadRequest)
			return
		}
		respondError(w, "failed to create group", http.StatusInternalServerError)
		return
	}

	respondJSON(w, toGroupResponse(g), http.StatusCreated)
}

// ListGroups handles GET /groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	groups, err := h.groupService.ListForUser(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to list groups", http.StatusInternalServerError)
		return
	}

	resp := make([]GroupResponse, 0, len(groups))
	for i := range groups {
		resp = append(resp, toGroupResponse(&groups[i]))
	}
	respondJSON(w, resp, http.StatusOK)
}

// GetGroup handles GET /groups/{id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	g, err := h.groupService.Get(r.Context(), groupID, userID)
	if err != nil {
		respondGroupError(w, err)
		return
	}

	respondJSON(w, toGroupResponse(g), http.StatusOK)
}

// UpdateGroup handles PUT /groups/{id}
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	var req struct {
		Name          *string `json:"name"`
		SimplifyDebts *bool   `json:"simplify_debts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var g *group.Group
	var err error
	switch {
	case req.Name != nil:
		g, err = h.groupService.Rename(r.Context(), groupID, userID, *req.Name)
	case req.SimplifyDebts != nil:
		g, err = h.groupService.SetSimplifyDebts(r.Context(), groupID, userID, *req.SimplifyDebts)
	default:
		respondError(w, "nothing to update", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondGroupError(w, err)
		return
	}

	respondJSON(w, toGroupResponse(g), http.StatusOK)
}

// DeleteGroup handles DELETE /groups/{id}
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /groups/{id}/members. A body with an email adds a
// registered user; a body with only a display name adds a guest.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var m *group.Member
	var err error
	if req.Email != "" {
		var u *user.User
		u, err = h.users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				respondError(w, "no user with this email", http.StatusNotFound)
				return
			}
			respondError(w, "failed to resolve user", http.StatusInternalServerError)
			return
		}
		name := req.DisplayName
		if name == "" {
			name = u.DisplayName
		}
		m, err = h.groupService.AddUser(r.Context(), groupID, userID, u.ID, name)
	} else {
		if req.DisplayName == "" {
			respondError(w, "display name is required for guests", http.StatusBadRequest)
			return
		}
		m, err = h.groupService.AddGuest(r.Context(), groupID, userID, req.DisplayName)
	}
	if err != nil {
		if errors.Is(err, group.ErrAlreadyMember) {
			respondError(w, "user is already a member", http.StatusConflict)
			return
		}
		respondGroupError(w, err)
		return
	}

	resp := MemberResponse{ID: m.ID.String(), DisplayName: m.DisplayName, IsGuest: m.IsGuest()}
	if m.UserID != nil {
		id := m.UserID.String()
		resp.UserID = &id
	}
	respondJSON(w, resp, http.StatusCreated)
}

// Leave handles POST /groups/{id}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Leave(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveGuest handles DELETE /groups/{id}/members/{memberID}
func (h *GroupHandler) RemoveGuest(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		respondError(w, "invalid member ID", http.StatusBadRequest)
		return
	}

	if err := h.groupService.RemoveGuest(r.Context(), groupID, userID, memberID); err != nil {
		respondGroupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// callerAndGroup extracts the authenticated user and the {id} URL parameter
func callerAndGroup(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid group ID", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, groupID, true
}

// respondGroupError maps group domain errors to HTTP status codes
func respondGroupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, group.ErrGroupNotFound), errors.Is(err, group.ErrEventNotFound),
		errors.Is(err, group.ErrMemberNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, group.ErrNotGroupMember):
		respondError(w, "not a member of this group", http.StatusForbidden)
	case errors.Is(err, group.ErrOutstandingBalance), errors.Is(err, group.ErrGroupNotSettled),
		errors.Is(err, group.ErrGuestHasHistory), errors.Is(err, group.ErrTooFewParticipants),
		errors.Is(err, group.ErrAlreadyMember):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, group.ErrInvalidGroupName), errors.Is(err, group.ErrInvalidEventName),
		errors.Is(err, group.ErrNotAGuest):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
