package ledger

import (
	"sort"

	"github.com/divvyapp/divvy/pkg/money"
)

// Simplify reduces a net balance matrix to the minimum number of settling
// transactions that leave every member's net position unchanged.
//
// Each member's net position is total-owed-to-them minus total-they-owe.
// The largest-magnitude debtor is greedily matched against the largest
// creditor for min(|debt|, credit), and whoever reaches zero drops out.
// Ties in magnitude break on member ID so the output is reproducible.
func Simplify(matrix BalanceMatrix) []Settlement {
	type position struct {
		member MemberID
		amount money.Amount // always positive
	}

	var debtors, creditors []position
	for _, member := range matrix.Members() {
		pos := matrix.NetPosition(member)
		switch {
		case pos.GreaterThanEpsilon():
			creditors = append(creditors, position{member, pos})
		case pos.Neg().GreaterThanEpsilon():
			debtors = append(debtors, position{member, pos.Neg()})
		}
	}

	byMagnitude := func(ps []position) func(i, j int) bool {
		return func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].member < ps[j].member
		}
	}

	var plan []Settlement
	for len(debtors) > 0 && len(creditors) > 0 {
		sort.Slice(debtors, byMagnitude(debtors))
		sort.Slice(creditors, byMagnitude(creditors))

		d, c := &debtors[0], &creditors[0]
		transfer := money.Min(d.amount, c.amount)
		plan = append(plan, Settlement{
			From:   d.member,
			To:     c.member,
			Amount: transfer.Round2(),
		})

		d.amount = d.amount.Sub(transfer)
		c.amount = c.amount.Sub(transfer)
		if d.amount.IsSettled() {
			debtors = debtors[1:]
		}
		if c.amount.IsSettled() {
			creditors = creditors[1:]
		}
	}
	return plan
}
