package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/module/balance"
	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/money"
)

// BalanceServiceInterface defines the balance queries needed by BalanceHandler
type BalanceServiceInterface interface {
	GroupBalances(ctx context.Context, groupID uuid.UUID) (ledger.BalanceMatrix, error)
	GroupSettlements(ctx context.Context, groupID uuid.UUID) (*balance.SettlementPlan, error)
	NetPositions(ctx context.Context, groupID uuid.UUID) (map[ledger.MemberID]money.Amount, error)
}

// BalanceHandler handles balance-related HTTP requests
type BalanceHandler struct {
	balances BalanceServiceInterface
	groups   GroupAuthorizerInterface
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(balances BalanceServiceInterface, groups GroupAuthorizerInterface) *BalanceHandler {
	return &BalanceHandler{
		balances: balances,
		groups:   groups,
	}
}

// GetGroupBalances handles GET /groups/{id}/balances
func (h *BalanceHandler) GetGroupBalances(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	if _, err := h.groups.Get(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	matrix, err := h.balances.GroupBalances(r.Context(), groupID)
	if err != nil {
		respondError(w, "failed to compute balances", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{"debts": matrix.Entries()}, http.StatusOK)
}

// GetGroupSettlements handles GET /groups/{id}/settlements
func (h *BalanceHandler) GetGroupSettlements(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	if _, err := h.groups.Get(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	plan, err := h.balances.GroupSettlements(r.Context(), groupID)
	if err != nil {
		respondError(w, "failed to compute settlements", http.StatusInternalServerError)
		return
	}

	respondJSON(w, plan, http.StatusOK)
}

// GetNetPositions handles GET /groups/{id}/net-positions
func (h *BalanceHandler) GetNetPositions(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	if _, err := h.groups.Get(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	positions, err := h.balances.NetPositions(r.Context(), groupID)
	if err != nil {
		respondError(w, "failed to compute net positions", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{"positions": positions}, http.StatusOK)
}
