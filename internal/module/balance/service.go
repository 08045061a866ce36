// Package balance exposes the consolidated views of a group's ledger: the
// net balance matrix, the settlement plan, per-member net positions and the
// eligibility verdicts that gate leaving, guest removal and group deletion.
//
// Read paths may serve from cache; every eligibility verdict is computed
// from a fresh snapshot, never from a cached matrix.
package balance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/pkg/logger"
	"github.com/divvyapp/divvy/pkg/money"
)

// Service handles balance queries over the consolidated ledger
type Service struct {
	expenses   ExpenseSource
	payments   PaymentSource
	groups     GroupSource
	cache      Cache
	eventDebts EventDebtStore
	log        *logger.Logger
}

// NewService creates a new balance service
func NewService(expenses ExpenseSource, payments PaymentSource, groups GroupSource, cache Cache, eventDebts EventDebtStore, log *logger.Logger) *Service {
	return &Service{
		expenses:   expenses,
		payments:   payments,
		groups:     groups,
		cache:      cache,
		eventDebts: eventDebts,
		log:        log,
	}
}

// SettlementPlan is what a group's settlement view shows: either the raw
// pairwise debts or the simplified plan, depending on the group's toggle.
type SettlementPlan struct {
	Simplified   bool                `json:"simplified"`
	Transactions []ledger.Settlement `json:"transactions"`
}

// EventBalances consolidates a single event's expenses and payments and
// refreshes the event's materialized debt view
func (s *Service) EventBalances(ctx context.Context, eventID uuid.UUID) (ledger.BalanceMatrix, error) {
	exps, err := s.expenses.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event expenses: %w", err)
	}
	pays, err := s.payments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event payments: %w", err)
	}

	matrix, err := ledger.Consolidate(toLedgerExpenses(exps), toLedgerPayments(pays))
	if err != nil {
		return nil, err
	}

	if err := s.eventDebts.SaveEventDebts(ctx, eventID, matrix); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to save event debts")
	}

	return matrix, nil
}

// GroupBalances returns the group-wide net balance matrix, serving from
// cache when a consolidation for this group is still valid
func (s *Service) GroupBalances(ctx context.Context, groupID uuid.UUID) (ledger.BalanceMatrix, error) {
	if cached, ok, err := s.cache.GetMatrix(ctx, groupID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("balance cache read failed")
	}

	matrix, err := s.consolidateGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetMatrix(ctx, groupID, matrix); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("balance cache write failed")
	}

	return matrix, nil
}

// GroupSettlements returns the settlement view the group's SimplifyDebts
// toggle selects: the minimum-transaction plan, or the raw pairwise debts
func (s *Service) GroupSettlements(ctx context.Context, groupID uuid.UUID) (*SettlementPlan, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	matrix, err := s.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if g.SimplifyDebts {
		return &SettlementPlan{Simplified: true, Transactions: ledger.Simplify(matrix)}, nil
	}
	return &SettlementPlan{Simplified: false, Transactions: matrix.Entries()}, nil
}

// NetPositions returns each involved member's net position: positive for
// net creditors, negative for net debtors
func (s *Service) NetPositions(ctx context.Context, groupID uuid.UUID) (map[ledger.MemberID]money.Amount, error) {
	matrix, err := s.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	positions := make(map[ledger.MemberID]money.Amount)
	for _, member := range matrix.Members() {
		positions[member] = matrix.NetPosition(member)
	}
	return positions, nil
}

// InvalidateGroup drops the group's cached matrix. Expense and payment
// services call this on every mutation.
func (s *Service) InvalidateGroup(ctx context.Context, groupID uuid.UUID) error {
	return s.cache.DeleteMatrix(ctx, groupID)
}

// CanLeaveGroup reports whether the member holds no balance in either
// direction across all events. Always computed from a fresh snapshot.
func (s *Service) CanLeaveGroup(ctx context.Context, groupID uuid.UUID, member ledger.MemberID, memberCount int) (bool, error) {
	matrix, err := s.consolidateGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return ledger.CanLeaveGroup(member, matrix, memberCount), nil
}

// CanDeleteGroup reports whether no outstanding balance exists anywhere in
// the group
func (s *Service) CanDeleteGroup(ctx context.Context, groupID uuid.UUID) (bool, error) {
	matrix, err := s.consolidateGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return ledger.CanDeleteGroup(matrix), nil
}

// CanRemoveGuest checks the raw participation records, not the netted
// matrix: a guest whose debts were fully repaid still has history and stays
func (s *Service) CanRemoveGuest(ctx context.Context, groupID uuid.UUID, guest ledger.MemberID, participantCount int) (bool, error) {
	exps, err := s.expenses.ListByGroup(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to list group expenses: %w", err)
	}
	pays, err := s.payments.ListByGroup(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to list group payments: %w", err)
	}

	events, err := s.groups.ListEvents(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to list group events: %w", err)
	}

	eventDebts := make([]ledger.BalanceMatrix, 0, len(events))
	for _, event := range events {
		var eventExpenses []ledger.Expense
		var eventPayments []ledger.Payment
		for i := range exps {
			if exps[i].EventID == event.ID {
				eventExpenses = append(eventExpenses, exps[i].Ledger())
			}
		}
		for i := range pays {
			if pays[i].EventID == event.ID {
				eventPayments = append(eventPayments, pays[i].Ledger())
			}
		}
		debts, err := ledger.Consolidate(eventExpenses, eventPayments)
		if err != nil {
			return false, err
		}
		eventDebts = append(eventDebts, debts)
	}

	history := ledger.Participation{
		Expenses:   toLedgerExpenses(exps),
		Payments:   toLedgerPayments(pays),
		EventDebts: eventDebts,
	}

	matrix, err := ledger.Consolidate(history.Expenses, history.Payments)
	if err != nil {
		return false, err
	}

	return ledger.CanRemoveGuest(guest, participantCount, matrix, history), nil
}

// consolidateGroup computes the group matrix from a fresh snapshot
func (s *Service) consolidateGroup(ctx context.Context, groupID uuid.UUID) (ledger.BalanceMatrix, error) {
	exps, err := s.expenses.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group expenses: %w", err)
	}
	pays, err := s.payments.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group payments: %w", err)
	}

	return ledger.Consolidate(toLedgerExpenses(exps), toLedgerPayments(pays))
}

func toLedgerExpenses(exps []expense.Expense) []ledger.Expense {
	out := make([]ledger.Expense, len(exps))
	for i := range exps {
		out[i] = exps[i].Ledger()
	}
	return out
}

func toLedgerPayments(pays []payment.Payment) []ledger.Payment {
	out := make([]ledger.Payment, len(pays))
	for i := range pays {
		out[i] = pays[i].Ledger()
	}
	return out
}
