package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/platform/group"
)

// EventServiceInterface defines the event operations needed by EventHandler
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, groupID, userID uuid.UUID, name string) (*group.Event, error)
	ListEvents(ctx context.Context, groupID, userID uuid.UUID) ([]group.Event, error)
	RenameEvent(ctx context.Context, groupID, userID, eventID uuid.UUID, name string) (*group.Event, error)
	DeleteEvent(ctx context.Context, groupID, userID, eventID uuid.UUID) error
}

// EventBalanceInterface consolidates a single event on demand
type EventBalanceInterface interface {
	EventBalances(ctx context.Context, eventID uuid.UUID) (ledger.BalanceMatrix, error)
}

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	events   EventServiceInterface
	balances EventBalanceInterface
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventServiceInterface, balances EventBalanceInterface) *EventHandler {
	return &EventHandler{
		events:   events,
		balances: balances,
	}
}

// EventResponse represents an event
type EventResponse struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

func toEventResponse(e *group.Event) EventResponse {
	return EventResponse{
		ID:      e.ID.String(),
		GroupID: e.GroupID.String(),
		Name:    e.Name,
	}
}

// CreateEvent handles POST /groups/{id}/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	e, err := h.events.CreateEvent(r.Context(), groupID, userID, req.Name)
	if err != nil {
		respondGroupError(w, err)
		return
	}

	respondJSON(w, toEventResponse(e), http.StatusCreated)
}

// ListEvents handles GET /groups/{id}/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	events, err := h.events.ListEvents(r.Context(), groupID, userID)
	if err != nil {
		respondGroupError(w, err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, toEventResponse(&events[i]))
	}
	respondJSON(w, resp, http.StatusOK)
}

// RenameEvent handles PUT /groups/{id}/events/{eventID}
func (h *EventHandler) RenameEvent(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, "invalid event ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	e, err := h.events.RenameEvent(r.Context(), groupID, userID, eventID, req.Name)
	if err != nil {
		respondGroupError(w, err)
		return
	}

	respondJSON(w, toEventResponse(e), http.StatusOK)
}

// DeleteEvent handles DELETE /groups/{id}/events/{eventID}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, "invalid event ID", http.StatusBadRequest)
		return
	}

	if err := h.events.DeleteEvent(r.Context(), groupID, userID, eventID); err != nil {
		respondGroupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetEventBalances handles GET /groups/{id}/events/{eventID}/balances
func (h *EventHandler) GetEventBalances(w http.ResponseWriter, r *http.Request) {
	_, _, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, "invalid event ID", http.StatusBadRequest)
		return
	}

	matrix, err := h.balances.EventBalances(r.Context(), eventID)
	if err != nil {
		respondError(w, "failed to compute balances", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{"debts": matrix.Entries()}, http.StatusOK)
}
