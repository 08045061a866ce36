package ledger

import "github.com/google/uuid"

// Consolidate folds a snapshot of expenses and payments into the net
// balance matrix. The same function serves both scopes: an event's expense
// set yields that event's debt view, the union across all events yields the
// group-wide matrix that eligibility decisions are made on.
//
// Accumulation is commutative and rounding is applied only at the final
// netting step, so identical inputs produce an identical matrix regardless
// of insertion order. Malformed input fails fast: silently dropping an
// inconsistent expense would mean silent data loss in a financial ledger.
func Consolidate(expenses []Expense, payments []Payment) (BalanceMatrix, error) {
	raw := make(BalanceMatrix)

	expenseIndex := make(map[uuid.UUID]Expense, len(expenses))
	for _, e := range expenses {
		expenseIndex[e.ID] = e
	}

	for _, e := range expenses {
		deltas, err := ExpenseDeltas(e)
		if err != nil {
			return nil, err
		}
		accumulate(raw, deltas)
	}

	for _, p := range payments {
		deltas, err := PaymentDeltas(p, expenseIndex)
		if err != nil {
			return nil, err
		}
		accumulate(raw, deltas)
	}

	return net(raw), nil
}

func accumulate(raw BalanceMatrix, deltas []Delta) {
	for _, d := range deltas {
		raw.set(d.Debtor, d.Creditor, raw.Amount(d.Debtor, d.Creditor).Add(d.Amount))
	}
}

// net reduces the raw accumulator to the anti-symmetric matrix: for each
// unordered pair only the surplus direction survives, rounded to cents, and
// settled pairs disappear entirely.
func net(raw BalanceMatrix) BalanceMatrix {
	matrix := make(BalanceMatrix)
	done := make(map[[2]MemberID]struct{})

	for from, row := range raw {
		for to := range row {
			pair := orderPair(from, to)
			if _, ok := done[pair]; ok {
				continue
			}
			done[pair] = struct{}{}

			a, b := pair[0], pair[1]
			netAmt := raw.Amount(a, b).Sub(raw.Amount(b, a))
			switch {
			case netAmt.GreaterThanEpsilon():
				matrix.set(a, b, netAmt.Round2())
			case netAmt.Neg().GreaterThanEpsilon():
				matrix.set(b, a, netAmt.Neg().Round2())
			}
		}
	}
	return matrix
}

func orderPair(a, b MemberID) [2]MemberID {
	if a < b {
		return [2]MemberID{a, b}
	}
	return [2]MemberID{b, a}
}
