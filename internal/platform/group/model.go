package group

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
)

// Member is a participant in a group. Registered users carry a UserID link;
// guests do not. The ledger treats both identically through LedgerID.
type Member struct {
	ID          uuid.UUID
	GroupID     uuid.UUID
	UserID      *uuid.UUID
	DisplayName string
	JoinedAt    time.Time
}

// IsGuest reports whether the member has no linked account
func (m *Member) IsGuest() bool {
	return m.UserID == nil
}

// LedgerID returns the member's identifier as the ledger sees it
func (m *Member) LedgerID() ledger.MemberID {
	return ledger.MemberID(m.ID.String())
}

// Group owns members, guests and events. SimplifyDebts controls whether
// settlement queries return the simplified plan or the raw pairwise matrix.
type Group struct {
	ID            uuid.UUID
	Name          string
	OwnerID       uuid.UUID
	SimplifyDebts bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Members       []Member
}

// Validate validates the group
func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrInvalidGroupName
	}
	return nil
}

// MemberByID finds a member by member ID
func (g *Group) MemberByID(id uuid.UUID) (*Member, bool) {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i], true
		}
	}
	return nil, false
}

// MemberByUserID finds the member record linked to a user account
func (g *Group) MemberByUserID(userID uuid.UUID) (*Member, bool) {
	for i := range g.Members {
		if g.Members[i].UserID != nil && *g.Members[i].UserID == userID {
			return &g.Members[i], true
		}
	}
	return nil, false
}

// ParticipantCount returns the number of members and guests combined
func (g *Group) ParticipantCount() int {
	return len(g.Members)
}

// Event is a named unit of activity inside a group. Expenses and payments
// attach to exactly one event; its consolidated debts are cached by the
// balance module.
type Event struct {
	ID        uuid.UUID
	GroupID   uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the event
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrInvalidEventName
	}
	return nil
}
