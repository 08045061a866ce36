// Package ledger is the debt ledger and consolidation core: share
// calculation, pairwise balance building, group-wide consolidation, debt
// simplification and the eligibility predicates built on top of them.
//
// Every function in this package is a pure computation over an in-memory
// snapshot. There is no I/O and no internal state; callers are responsible
// for handing in a consistent snapshot of expenses and payments.
package ledger

import (
	"sort"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/pkg/money"
)

// MemberID uniquely identifies a user or guest within a group. Guests and
// registered users are interchangeable at this level.
type MemberID string

// SplitMethod determines how an expense is divided among its debtors.
type SplitMethod string

const (
	SplitEqually     SplitMethod = "EQUALLY"
	SplitPercentages SplitMethod = "PERCENTAGES"
	SplitCustom      SplitMethod = "CUSTOM"
)

// IsValid checks if the split method is a known value.
func (m SplitMethod) IsValid() bool {
	switch m {
	case SplitEqually, SplitPercentages, SplitCustom:
		return true
	}
	return false
}

// Expense is a shared cost with payers and debtors.
//
// Payers maps member → amount they physically paid; Debtors maps member →
// amount they are responsible for. Both sides sum to Amount (within
// epsilon). Debtors is derived from the split method once, when the expense
// is committed, and stored — it is never recomputed implicitly.
type Expense struct {
	ID         uuid.UUID
	Amount     money.Amount
	Payers     map[MemberID]money.Amount
	Debtors    map[MemberID]money.Amount
	AmountPaid money.Amount
	Paid       bool
}

// Validate checks the expense's internal consistency: a positive amount and
// payer/debtor maps that each sum to it within epsilon.
func (e *Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if len(e.Payers) == 0 || len(e.Debtors) == 0 {
		return ErrInconsistentExpense
	}

	paid := money.Zero
	for _, amt := range e.Payers {
		if amt.IsNegative() {
			return ErrInconsistentExpense
		}
		paid = paid.Add(amt)
	}
	if !paid.ApproxEqual(e.Amount) {
		return ErrInconsistentExpense
	}

	owed := money.Zero
	for _, amt := range e.Debtors {
		if amt.IsNegative() {
			return ErrInconsistentExpense
		}
		owed = owed.Add(amt)
	}
	if !owed.ApproxEqual(e.Amount) {
		return ErrInconsistentExpense
	}

	return nil
}

// Outstanding returns the amount still unpaid against this expense.
func (e *Expense) Outstanding() money.Amount {
	return e.Amount.Sub(e.AmountPaid)
}

// IsSettled reports whether direct payments have covered the expense.
func (e *Expense) IsSettled() bool {
	return e.Outstanding().IsSettled()
}

// Payment is a direct settlement between two members. A nil ExpenseID means
// the payment is free-standing (against a person); otherwise it is
// earmarked against that expense's AmountPaid.
type Payment struct {
	ID        uuid.UUID
	From      MemberID
	To        MemberID
	Amount    money.Amount
	ExpenseID *uuid.UUID
}

// Validate checks payment preconditions: distinct parties and a positive
// amount. That the amount does not exceed the balance it settles is a
// caller-enforced precondition, not re-derived here.
func (p *Payment) Validate() error {
	if p.From == p.To {
		return ErrSelfPayment
	}
	if !p.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// BalanceMatrix is the netted, anti-symmetric debt table: matrix[A][B] = n
// means A owes B exactly n. For any pair at most one direction is present,
// and settled pairs are absent rather than stored as zero.
type BalanceMatrix map[MemberID]map[MemberID]money.Amount

// Amount returns what from owes to, zero if no entry exists.
func (m BalanceMatrix) Amount(from, to MemberID) money.Amount {
	if row, ok := m[from]; ok {
		if amt, ok := row[to]; ok {
			return amt
		}
	}
	return money.Zero
}

func (m BalanceMatrix) set(from, to MemberID, amt money.Amount) {
	row, ok := m[from]
	if !ok {
		row = make(map[MemberID]money.Amount)
		m[from] = row
	}
	row[to] = amt
}

// IsEmpty reports whether no outstanding balance exists anywhere.
func (m BalanceMatrix) IsEmpty() bool {
	for _, row := range m {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Owes reports whether member has any outstanding debt.
func (m BalanceMatrix) Owes(member MemberID) bool {
	return len(m[member]) > 0
}

// IsOwed reports whether anybody owes member.
func (m BalanceMatrix) IsOwed(member MemberID) bool {
	for _, row := range m {
		if amt, ok := row[member]; ok && amt.IsPositive() {
			return true
		}
	}
	return false
}

// Involves reports whether member appears on either side of any entry.
func (m BalanceMatrix) Involves(member MemberID) bool {
	return m.Owes(member) || m.IsOwed(member)
}

// NetPosition returns member's total credit minus total debit: positive for
// net creditors, negative for net debtors.
func (m BalanceMatrix) NetPosition(member MemberID) money.Amount {
	pos := money.Zero
	for from, row := range m {
		for to, amt := range row {
			if to == member {
				pos = pos.Add(amt)
			}
			if from == member {
				pos = pos.Sub(amt)
			}
		}
	}
	return pos
}

// Members returns every member appearing in the matrix, sorted.
func (m BalanceMatrix) Members() []MemberID {
	seen := make(map[MemberID]struct{})
	for from, row := range m {
		if len(row) > 0 {
			seen[from] = struct{}{}
		}
		for to := range row {
			seen[to] = struct{}{}
		}
	}
	members := make([]MemberID, 0, len(seen))
	for id := range seen {
		members = append(members, id)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}

// Entries flattens the matrix into a deterministic list of pairwise debts.
func (m BalanceMatrix) Entries() []Settlement {
	var entries []Settlement
	for _, from := range m.Members() {
		row := m[from]
		tos := make([]MemberID, 0, len(row))
		for to := range row {
			tos = append(tos, to)
		}
		sort.Slice(tos, func(i, j int) bool { return tos[i] < tos[j] })
		for _, to := range tos {
			entries = append(entries, Settlement{From: from, To: to, Amount: row[to]})
		}
	}
	return entries
}

// Settlement is one settling transaction: From pays To the Amount.
type Settlement struct {
	From   MemberID     `json:"from"`
	To     MemberID     `json:"to"`
	Amount money.Amount `json:"amount"`
}

// Participation is the raw, pre-consolidation activity record of a group:
// every expense, every payment and every event's materialized debt view.
// Guest removal checks look at this rather than the netted matrix, because
// even a fully netted-to-zero history must remain attributable.
type Participation struct {
	Expenses   []Expense
	Payments   []Payment
	EventDebts []BalanceMatrix
}

// Involves reports whether member appears anywhere in the raw records.
func (p Participation) Involves(member MemberID) bool {
	for i := range p.Expenses {
		if _, ok := p.Expenses[i].Payers[member]; ok {
			return true
		}
		if _, ok := p.Expenses[i].Debtors[member]; ok {
			return true
		}
	}
	for i := range p.Payments {
		if p.Payments[i].From == member || p.Payments[i].To == member {
			return true
		}
	}
	for _, debts := range p.EventDebts {
		if debts.Involves(member) {
			return true
		}
	}
	return false
}
