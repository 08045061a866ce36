package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/pkg/money"
)

// Delta is one directed balance contribution: a positive amount increases
// Debtor's debt towards Creditor, a negative amount reduces it. Deltas are
// unrounded; rounding happens once, at the netting step.
type Delta struct {
	Debtor   MemberID
	Creditor MemberID
	Amount   money.Amount
}

// ExpenseDeltas computes the pairwise balance deltas of a single expense.
//
// Each debtor D owes each payer P a slice of P's outlay proportional to how
// much of the expense P covered: delta(D,P) = share_D * paid_P / amount.
// With a single payer this degenerates to delta(D,P) = share_D; with
// multiple payers nothing is double counted, because the deltas for a fixed
// debtor sum to their share and the deltas for a fixed payer sum to what
// that payer put in. A debtor who also paid nets against themselves, so no
// self-debt is ever recorded.
func ExpenseDeltas(e Expense) ([]Delta, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("expense %s: %w", e.ID, err)
	}

	debtors := sortedMembers(e.Debtors)
	payers := sortedMembers(e.Payers)

	var deltas []Delta
	for _, d := range debtors {
		share := e.Debtors[d]
		for _, p := range payers {
			if d == p {
				continue
			}
			paid := e.Payers[p]
			if paid.IsZero() {
				continue
			}
			deltas = append(deltas, Delta{
				Debtor:   d,
				Creditor: p,
				Amount:   share.MulFrac(paid, e.Amount),
			})
		}
	}
	return deltas, nil
}

// PaymentDeltas converts a direct payment into balance deltas.
//
// A free-standing payment is a single negative delta from→to: it reduces
// the payer's debt, or flips the pair's direction if it overshoots. An
// earmarked payment is spread over the target expense's payers with the
// same proportional formula the expense allocation used, again skipping the
// self pair.
func PaymentDeltas(p Payment, expenses map[uuid.UUID]Expense) ([]Delta, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("payment %s: %w", p.ID, err)
	}

	if p.ExpenseID == nil {
		return []Delta{{Debtor: p.From, Creditor: p.To, Amount: p.Amount.Neg()}}, nil
	}

	target, ok := expenses[*p.ExpenseID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", p.ID, ErrUnknownExpense)
	}

	var deltas []Delta
	for _, payer := range sortedMembers(target.Payers) {
		if payer == p.From {
			continue
		}
		paid := target.Payers[payer]
		if paid.IsZero() {
			continue
		}
		deltas = append(deltas, Delta{
			Debtor:   p.From,
			Creditor: payer,
			Amount:   p.Amount.MulFrac(paid, target.Amount).Neg(),
		})
	}
	return deltas, nil
}

func sortedMembers(m map[MemberID]money.Amount) []MemberID {
	ids := make([]MemberID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
