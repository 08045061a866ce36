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
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/pkg/money"
)

// PaymentServiceInterface defines the payment operations needed by PaymentHandler
type PaymentServiceInterface interface {
	Record(ctx context.Context, input payment.RecordInput) (*payment.Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]payment.Payment, error)
}

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	payments PaymentServiceInterface
	groups   GroupAuthorizerInterface
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentServiceInterface, groups GroupAuthorizerInterface) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		groups:   groups,
	}
}

// PaymentRequest represents the payment record request body
type PaymentRequest struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    string  `json:"amount"`
	ExpenseID *string `json:"expense_id,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// PaymentResponse represents a payment
type PaymentResponse struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Amount    money.Amount `json:"amount"`
	ExpenseID *string      `json:"expense_id,omitempty"`
	Note      string       `json:"note,omitempty"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:      p.ID.String(),
		EventID: p.EventID.String(),
		From:    string(p.From),
		To:      string(p.To),
		Amount:  p.Amount,
		Note:    p.Note,
	}
	if p.ExpenseID != nil {
		id := p.ExpenseID.String()
		resp.ExpenseID = &id
	}
	return resp
}

// RecordPayment handles POST /groups/{id}/events/{eventID}/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
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

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := money.FromString(req.Amount)
	if err != nil {
		respondError(w, "invalid amount", http.StatusBadRequest)
		return
	}

	members := make(map[ledger.MemberID]bool, len(g.Members))
	for i := range g.Members {
		members[g.Members[i].LedgerID()] = true
	}
	if !members[ledger.MemberID(req.From)] || !members[ledger.MemberID(req.To)] {
		respondError(w, "payment parties must be group members", http.StatusBadRequest)
		return
	}

	input := payment.RecordInput{
		EventID: eventID,
		GroupID: groupID,
		From:    ledger.MemberID(req.From),
		To:      ledger.MemberID(req.To),
		Amount:  amount,
		Note:    req.Note,
	}
	if req.ExpenseID != nil {
		expenseID, err := uuid.Parse(*req.ExpenseID)
		if err != nil {
			respondError(w, "invalid expense ID", http.StatusBadRequest)
			return
		}
		input.ExpenseID = &expenseID
	}

	p, err := h.payments.Record(r.Context(), input)
	if err != nil {
		respondPaymentError(w, err)
		return
	}

	respondJSON(w, toPaymentResponse(p), http.StatusCreated)
}

// ListPayments handles GET /groups/{id}/events/{eventID}/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.payments.ListByEvent(r.Context(), eventID)
	if err != nil {
		respondError(w, "failed to list payments", http.StatusInternalServerError)
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}
	respondJSON(w, resp, http.StatusOK)
}

// DeletePayment handles DELETE /groups/{id}/events/{eventID}/payments/{paymentID}
func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := callerAndGroup(w, r)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		respondError(w, "invalid payment ID", http.StatusBadRequest)
		return
	}

	if _, err := h.groups.Get(r.Context(), groupID, userID); err != nil {
		respondGroupError(w, err)
		return
	}

	if err := h.payments.Delete(r.Context(), paymentID); err != nil {
		respondPaymentError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondPaymentError maps payment domain errors to HTTP status codes
func respondPaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound), errors.Is(err, expense.ErrExpenseNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, expense.ErrExceedsOutstanding):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payment.ErrExpenseMismatch),
		errors.Is(err, ledger.ErrSelfPayment),
		errors.Is(err, ledger.ErrNonPositiveAmount):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
