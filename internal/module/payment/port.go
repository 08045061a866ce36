package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/module/expense"
)

// Repository defines the interface for payment persistence operations
type Repository interface {
	// Create creates a new payment
	Create(ctx context.Context, p *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// ListByEvent retrieves all payments of an event
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Payment, error)

	// ListByGroup retrieves all payments across every event of a group
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Payment, error)

	// Delete deletes a payment
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExpenseStore is the slice of the expense module the payment service needs
// to settle earmarked payments
type ExpenseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error)
	Update(ctx context.Context, e *expense.Expense) error
}

// BalanceInvalidator drops cached balance views after a mutation
type BalanceInvalidator interface {
	InvalidateGroup(ctx context.Context, groupID uuid.UUID) error
}
