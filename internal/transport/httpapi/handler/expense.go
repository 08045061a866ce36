package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/internal/platform/group"
	"github.com/divvyapp/divvy/pkg/money"
)

// ExpenseServiceInterface defines the expense operations needed by ExpenseHandler
type ExpenseServiceInterface interface {
	Create(ctx context.Context, input expense.CreateInput) (*expense.Expense, error)
	Update(ctx context.Context, id uuid.UUID, input expense.CreateInput) (*expense.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]expense.Expense, error)
}

// GroupAuthorizerInterface checks that the caller belongs to the group
type GroupAuthorizerInterface interface {
	Get(ctx context.Context, groupID, userID uuid.UUID) (*group.Group, error)
}

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	expenses ExpenseServiceInterface
	groups   GroupAuthorizerInterface
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenses ExpenseServiceInterface, groups GroupAuthorizerInterface) *ExpenseHandler {
	return &ExpenseHandler{
		expenses: expenses,
		groups:   groups,
	}
}

// ExpenseRequest represents the expense create/update request body. All
// amounts are decimal strings.
type ExpenseRequest struct {
	Description  string            `json:"description"`
	Amount       string            `json:"amount"`
	Payers       map[string]string `json:"payers"`
	SplitMethod  string            `json:"split_method"`
	Participants []string          `json:"participants"`
	Percentages  map[string]int    `json:"percentages,omitempty"`
	Shares       map[string]string `json:"shares,omitempty"`
}

// ExpenseResponse represents an expense
type ExpenseResponse struct {
	ID          string                         `json:"id"`
	EventID     string                         `json:"event_id"`
	Description string                         `json:"description"`
	Amount      money.Amount                   `json:"amount"`
	SplitMethod string                         `json:"split_method"`
	Payers      map[ledger.MemberID]money.Amount `json:"payers"`
	Debtors     map[ledger.MemberID]money.Amount `json:"debtors"`
	AmountPaid  money.Amount                   `json:"amount_paid"`
	Paid        bool                           `json:"paid"`
}

func toExpenseResponse(e *expense.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID.String(),
		EventID:     e.EventID.String(),
		Description: e.Description,
		Amount:      e.Amount,
		SplitMethod: string(e.SplitMethod),
		Payers:      e.Payers,
		Debtors:     e.Debtors,
		AmountPaid:  e.AmountPaid,
		Paid:        e.Paid,
	}
}

// CreateExpense handles POST /groups/{id}/events/{eventID}/expenses
func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, "invalid event ID", http.StatusBadRequest)
		return
	}

	g, err := h.groups.Get(r.Context(), groupID, userID)
	if err != nil {
		respondGroupError(w, err)
		return
	}

	input, ok := h.parseExpenseRequest(w, r, g, eventID)
	if !ok {
		return
	}

	e, err := h.expenses.Create(r.Context(), input)
	if err != nil {
		respondExpenseError(w, err)
		return
	}

	respondJSON(w, toExpenseResponse(e), http.StatusCreated)
}

// ListExpenses handles GET /groups/{id}/events/{eventID}/expenses
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, "invalid event ID", http.StatusBadRequest)
		return
	}

	if _, err := h.groups.Get(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	expenses, err := h.expenses.ListByEvent(r.Context(), eventID)
	if err != nil {
		respondError(w, "failed to list expenses", http.StatusInternalServerError)
		return
	}

	resp := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		resp = append(resp, toExpenseResponse(&expenses[i]))
	}
	respondJSON(w, resp, http.StatusOK)
}

// UpdateExpense handles PUT /groups/{id}/events/{eventID}/expenses/{expenseID}
func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, "invalid event ID", http.StatusBadRequest)
		return
	}
	expenseID, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	g, err := h.groups.Get(r.Context(), groupID, userID)
	if err != nil {
		respondGroupError(w, err)
		return
	}

	input, ok := h.parseExpenseRequest(w, r, g, eventID)
	if !ok {
		return
	}

	e, err := h.expenses.Update(r.Context(), expenseID, input)
	if err != nil {
		respondExpenseError(w, err)
		return
	}

	respondJSON(w, toExpenseResponse(e), http.StatusOK)
}

// DeleteExpense handles DELETE /groups/{id}/events/{eventID}/expenses/{expenseID}
func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	if _, err := h.groups.Get(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	if err := h.expenses.Delete(r.Context(), expenseID); err != nil {
		respondExpenseError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseExpenseRequest decodes and validates the request body against the
// group's member list
func (h *ExpenseHandler) parseExpenseRequest(w http.ResponseWriter, r *http.Request, g *group.Group, eventID uuid.UUID) (expense.CreateInput, bool) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return expense.CreateInput{}, false
	}

	amount, err := money.FromString(req.Amount)
	if err != nil {
		respondError(w, "invalid amount", http.StatusBadRequest)
		return expense.CreateInput{}, false
	}

	members := make(map[ledger.MemberID]bool, len(g.Members))
	for i := range g.Members {
		members[g.Members[i].LedgerID()] = true
	}

	payers := make(map[ledger.MemberID]money.Amount, len(req.Payers))
	for id, s := range req.Payers {
		member := ledger.MemberID(id)
		if !members[member] {
			respondError(w, "payer is not a group member", http.StatusBadRequest)
			return expense.CreateInput{}, false
		}
		if payers[member], err = money.FromString(s); err != nil {
			respondError(w, "invalid payer amount", http.StatusBadRequest)
			return expense.CreateInput{}, false
		}
	}

	participants := make([]ledger.MemberID, 0, len(req.Participants))
	for _, id := range req.Participants {
		member := ledger.MemberID(id)
		if !members[member] {
			respondError(w, "participant is not a group member", http.StatusBadRequest)
			return expense.CreateInput{}, false
		}
		participants = append(participants, member)
	}

	percentages := make(map[ledger.MemberID]int, len(req.Percentages))
	for id, p := range req.Percentages {
		percentages[ledger.MemberID(id)] = p
	}

	shares := make(map[ledger.MemberID]money.Amount, len(req.Shares))
	for id, s := range req.Shares {
		if shares[ledger.MemberID(id)], err = money.FromString(s); err != nil {
			respondError(w, "invalid share amount", http.StatusBadRequest)
			return expense.CreateInput{}, false
		}
	}

	return expense.CreateInput{
		EventID:      eventID,
		GroupID:      g.ID,
		Description:  req.Description,
		Amount:       amount,
		Payers:       payers,
		SplitMethod:  ledger.SplitMethod(req.SplitMethod),
		Participants: participants,
		Percentages:  percentages,
		Shares:       shares,
	}, true
}

// respondExpenseError maps expense domain errors to HTTP status codes
func respondExpenseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, expense.ErrExpenseNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, expense.ErrExpenseHasPayments), errors.Is(err, expense.ErrAmountBelowPaid):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, expense.ErrInvalidDescription),
		errors.Is(err, ledger.ErrInvalidAllocation),
		errors.Is(err, ledger.ErrNoMembers),
		errors.Is(err, ledger.ErrUnknownSplitMethod),
		errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, ledger.ErrInconsistentExpense):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
