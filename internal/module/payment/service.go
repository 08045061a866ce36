package payment

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

// Service handles payment business logic
type Service struct {
	repo        Repository
	expenses    ExpenseStore
	invalidator BalanceInvalidator
	log         *logger.Logger
}

// NewService creates a new payment service
func NewService(repo Repository, expenses ExpenseStore, invalidator BalanceInvalidator, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		expenses:    expenses,
		invalidator: invalidator,
		log:         log,
	}
}

// RecordInput carries everything needed to record a payment
type RecordInput struct {
	EventID   uuid.UUID
	GroupID   uuid.UUID
	From      ledger.MemberID
	To        ledger.MemberID
	Amount    money.Amount
	ExpenseID *uuid.UUID
	Note      string
}

// Record validates and stores a payment. Earmarked payments are applied to
// their target expense's paid amount and may not exceed what is still
// outstanding on it.
func (s *Service) Record(ctx context.Context, input RecordInput) (*Payment, error) {
	p := &Payment{
		ID:        uuid.New(),
		EventID:   input.EventID,
		GroupID:   input.GroupID,
		From:      input.From,
		To:        input.To,
		Amount:    input.Amount,
		ExpenseID: input.ExpenseID,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: time.Now(),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.IsEarmarked() {
		target, err := s.expenses.GetByID(ctx, *p.ExpenseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load earmarked expense: %w", err)
		}
		if target.EventID != p.EventID {
			return nil, ErrExpenseMismatch
		}
		if err := target.ApplyPayment(p.Amount); err != nil {
			return nil, err
		}
		if err := s.expenses.Update(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to update earmarked expense: %w", err)
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := s.invalidator.InvalidateGroup(ctx, p.GroupID); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to invalidate balance cache")
	}

	s.log.WithContext(ctx).Info("payment recorded",
		"payment_id", p.ID, "from", p.From, "to", p.To, "amount", p.Amount)
	return p, nil
}

// Delete removes a payment, reversing its effect on any earmarked expense
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if p.IsEarmarked() {
		target, err := s.expenses.GetByID(ctx, *p.ExpenseID)
		if err != nil {
			return fmt.Errorf("failed to load earmarked expense: %w", err)
		}
		target.ReversePayment(p.Amount)
		if err := s.expenses.Update(ctx, target); err != nil {
			return fmt.Errorf("failed to update earmarked expense: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	if err := s.invalidator.InvalidateGroup(ctx, p.GroupID); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("failed to invalidate balance cache")
	}

	return nil
}

// GetByID retrieves a payment by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByEvent retrieves all payments of an event
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Payment, error) {
	return s.repo.ListByEvent(ctx, eventID)
}
