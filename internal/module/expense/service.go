package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/logger"
	"github.com/divvyapp/divvy/pkg/money"
)

// Service handles expense business logic
type Service struct {
	repo        Repository
	invalidator BalanceInvalidator
	log         *logger.Logger
}

// NewService creates a new expense service
func NewService(repo Repository, invalidator BalanceInvalidator, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		log:         log,
	}
}

// CreateInput carries everything needed to commit an expense. Participants
// selects who shares the cost; Percentages and Shares are read only for
// their respective split methods.
type CreateInput struct {
	EventID      uuid.UUID
	GroupID      uuid.UUID
	Description  string
	Amount       money.Amount
	Payers       map[ledger.MemberID]money.Amount
	SplitMethod  ledger.SplitMethod
	Participants []ledger.MemberID
	Percentages  map[ledger.MemberID]int
	Shares       map[ledger.MemberID]money.Amount
}

// Create derives the debtor side from the split method, reconciles the
// rounding residue and commits the expense
func (s *Service) Create(ctx context.Context, input CreateInput) (*Expense, error) {
	debtors, err := ledger.CalculateShares(input.Amount, input.SplitMethod, ledger.SplitInput{
		Percentages: input.Percentages,
		Shares:      input.Shares,
	}, input.Participants)
	if err != nil {
		return nil, err
	}
	absorbResidue(input.Amount, debtors)

	now := time.Now()
	e := &Expense{
		ID:          uuid.New(),
		EventID:     input.EventID,
		GroupID:     input.GroupID,
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		SplitMethod: input.SplitMethod,
		Payers:      input.Payers,
		Debtors:     debtors,
		AmountPaid:  money.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	if err := s.invalidator.InvalidateGroup(ctx, e.GroupID); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to invalidate balance cache")
	}

	s.log.WithContext(ctx).Info("expense created",
		"expense_id", e.ID, "event_id", e.EventID, "amount", e.Amount)
	return e, nil
}

// Update re-derives the split and replaces the expense's amount, payers and
// debtors. The amount may not drop below what earmarked payments already
// covered.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input CreateInput) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Amount.Cmp(e.AmountPaid) < 0 {
		return nil, ErrAmountBelowPaid
	}

	debtors, err := ledger.CalculateShares(input.Amount, input.SplitMethod, ledger.SplitInput{
		Percentages: input.Percentages,
		Shares:      input.Shares,
	}, input.Participants)
	if err != nil {
		return nil, err
	}
	absorbResidue(input.Amount, debtors)

	e.Description = strings.TrimSpace(input.Description)
	e.Amount = input.Amount
	e.SplitMethod = input.SplitMethod
	e.Payers = input.Payers
	e.Debtors = debtors
	e.Paid = e.Outstanding().IsSettled()
	e.UpdatedAt = time.Now()

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	if err := s.invalidator.InvalidateGroup(ctx, e.GroupID); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to invalidate balance cache")
	}

	return e, nil
}

// Delete removes an expense. Expenses with earmarked payments must have
// those payments deleted first so history stays consistent.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if e.AmountPaid.IsPositive() {
		return ErrExpenseHasPayments
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if err := s.invalidator.InvalidateGroup(ctx, e.GroupID); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to invalidate balance cache")
	}

	return nil
}

// GetByID retrieves an expense by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByEvent retrieves all expenses of an event
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Expense, error) {
	return s.repo.ListByEvent(ctx, eventID)
}
