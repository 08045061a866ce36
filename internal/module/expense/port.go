package expense

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for expense persistence operations
type Repository interface {
	// Create creates a new expense
	Create(ctx context.Context, e *Expense) error

	// GetByID retrieves an expense by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// ListByEvent retrieves all expenses of an event
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Expense, error)

	// ListByGroup retrieves all expenses across every event of a group
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Expense, error)

	// Update updates an expense
	Update(ctx context.Context, e *Expense) error

	// Delete deletes an expense
	Delete(ctx context.Context, id uuid.UUID) error
}

// BalanceInvalidator drops cached balance views after a mutation
type BalanceInvalidator interface {
	InvalidateGroup(ctx context.Context, groupID uuid.UUID) error
}
