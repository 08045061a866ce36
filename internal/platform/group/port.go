package group

import (
	"context"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
)

// Repository defines the interface for group persistence operations
type Repository interface {
	// Create creates a new group with its initial member rows
	Create(ctx context.Context, g *Group) error

	// GetByID retrieves a group with its members
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)

	// ListByUser retrieves all groups a user belongs to
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Group, error)

	// Update updates group attributes (name, simplify flag)
	Update(ctx context.Context, g *Group) error

	// Delete deletes a group and everything under it
	Delete(ctx context.Context, id uuid.UUID) error

	// AddMember adds a member or guest row to a group
	AddMember(ctx context.Context, m *Member) error

	// RemoveMember removes a member row from a group
	RemoveMember(ctx context.Context, groupID, memberID uuid.UUID) error

	// CreateEvent creates an event inside a group
	CreateEvent(ctx context.Context, e *Event) error

	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)

	// ListEvents retrieves all events of a group
	ListEvents(ctx context.Context, groupID uuid.UUID) ([]Event, error)

	// UpdateEvent updates event attributes
	UpdateEvent(ctx context.Context, e *Event) error

	// DeleteEvent deletes an event and its expenses and payments
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// EligibilityChecker answers whether destructive group actions are allowed.
// The balance module implements it over the consolidated ledger; the group
// service only consumes the verdicts.
type EligibilityChecker interface {
	// CanLeaveGroup reports whether a member has no balance in either
	// direction across all events of the group
	CanLeaveGroup(ctx context.Context, groupID uuid.UUID, member ledger.MemberID, memberCount int) (bool, error)

	// CanDeleteGroup reports whether the group's consolidated matrix is empty
	CanDeleteGroup(ctx context.Context, groupID uuid.UUID) (bool, error)

	// CanRemoveGuest reports whether a guest has no recorded participation,
	// settled or not, anywhere in the group
	CanRemoveGuest(ctx context.Context, groupID uuid.UUID, guest ledger.MemberID, participantCount int) (bool, error)
}
