package balance

import (
	"context"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/internal/platform/group"
)

// ExpenseSource provides the expense snapshots consolidation runs over
type ExpenseSource interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]expense.Expense, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]expense.Expense, error)
}

// PaymentSource provides the payment snapshots consolidation runs over
type PaymentSource interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]payment.Payment, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]payment.Payment, error)
}

// GroupSource provides group records (events list, simplify flag, members)
type GroupSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*group.Group, error)
	ListEvents(ctx context.Context, groupID uuid.UUID) ([]group.Event, error)
}

// Cache stores consolidated group matrices between mutations. Entries are
// invalidated explicitly on every expense/payment change; the TTL is only a
// safety net.
type Cache interface {
	GetMatrix(ctx context.Context, groupID uuid.UUID) (ledger.BalanceMatrix, bool, error)
	SetMatrix(ctx context.Context, groupID uuid.UUID, matrix ledger.BalanceMatrix) error
	DeleteMatrix(ctx context.Context, groupID uuid.UUID) error
}

// EventDebtStore materializes per-event consolidated debts for display
type EventDebtStore interface {
	SaveEventDebts(ctx context.Context, eventID uuid.UUID, debts ledger.BalanceMatrix) error
}
