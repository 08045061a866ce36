package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/money"
)

// Payment is a direct transfer between two members of a group. A nil
// ExpenseID makes it free-standing (a person-to-person settlement); when set
// it is earmarked against that expense and counts toward its paid amount.
type Payment struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	GroupID   uuid.UUID
	From      ledger.MemberID
	To        ledger.MemberID
	Amount    money.Amount
	ExpenseID *uuid.UUID
	Note      string
	CreatedAt time.Time
}

// IsEarmarked reports whether the payment targets a specific expense
func (p *Payment) IsEarmarked() bool {
	return p.ExpenseID != nil
}

// Ledger converts the payment into its pure computation form
func (p *Payment) Ledger() ledger.Payment {
	return ledger.Payment{
		ID:        p.ID,
		From:      p.From,
		To:        p.To,
		Amount:    p.Amount,
		ExpenseID: p.ExpenseID,
	}
}

// Validate checks payment preconditions
func (p *Payment) Validate() error {
	ledgerPayment := p.Ledger()
	return ledgerPayment.Validate()
}
