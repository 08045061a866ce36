package expense

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/money"
)

// Expense is a shared cost inside an event. Debtors is derived from the
// split method once, at commit time, and stored; it is never recomputed
// implicitly on read.
type Expense struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	GroupID     uuid.UUID
	Description string
	Amount      money.Amount
	SplitMethod ledger.SplitMethod
	Payers      map[ledger.MemberID]money.Amount
	Debtors     map[ledger.MemberID]money.Amount
	AmountPaid  money.Amount
	Paid        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks structural validity beyond what the ledger checks
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrInvalidDescription
	}
	ledgerExpense := e.Ledger()
	return ledgerExpense.Validate()
}

// Ledger converts the expense into its pure computation form
func (e *Expense) Ledger() ledger.Expense {
	return ledger.Expense{
		ID:         e.ID,
		Amount:     e.Amount,
		Payers:     e.Payers,
		Debtors:    e.Debtors,
		AmountPaid: e.AmountPaid,
		Paid:       e.Paid,
	}
}

// Outstanding returns the amount not yet covered by earmarked payments
func (e *Expense) Outstanding() money.Amount {
	return e.Amount.Sub(e.AmountPaid)
}

// ApplyPayment records an earmarked payment against the expense. The amount
// must not exceed what is still outstanding.
func (e *Expense) ApplyPayment(amount money.Amount) error {
	if amount.Cmp(e.Outstanding()) > 0 && !amount.ApproxEqual(e.Outstanding()) {
		return ErrExceedsOutstanding
	}
	e.AmountPaid = e.AmountPaid.Add(amount)
	e.Paid = e.Outstanding().IsSettled()
	e.UpdatedAt = time.Now()
	return nil
}

// ReversePayment undoes a previously applied earmarked payment
func (e *Expense) ReversePayment(amount money.Amount) {
	e.AmountPaid = e.AmountPaid.Sub(amount)
	if e.AmountPaid.IsNegative() {
		e.AmountPaid = money.Zero
	}
	e.Paid = e.Outstanding().IsSettled()
	e.UpdatedAt = time.Now()
}

// absorbResidue reconciles the rounding residue of a computed split so the
// debtor side sums exactly to the expense amount. The residue lands on the
// last participating member in ID order, so a 100.00 three-way split becomes
// 33.33 / 33.33 / 33.34.
func absorbResidue(amount money.Amount, debtors map[ledger.MemberID]money.Amount) {
	sum := money.Zero
	members := make([]ledger.MemberID, 0, len(debtors))
	for m, share := range debtors {
		sum = sum.Add(share)
		members = append(members, m)
	}

	residue := amount.Sub(sum)
	if residue.IsZero() || len(members) == 0 {
		return
	}

	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	last := members[len(members)-1]
	debtors[last] = debtors[last].Add(residue)
}
