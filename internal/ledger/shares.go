package ledger

import "github.com/divvyapp/divvy/pkg/money"

// SplitInput carries the method-specific inputs for share calculation.
// Percentages is read for SplitPercentages, Shares for SplitCustom; an
// equal split needs neither.
type SplitInput struct {
	Percentages map[MemberID]int
	Shares      map[MemberID]money.Amount
}

// CalculateShares converts an expense amount, a split method and the
// selected members into the debtors map: member → amount they are
// responsible for. It never mutates the payer side of an expense.
//
// Equal splits compute round2(amount/N) independently per member and do not
// reconcile the rounding residue; the committing caller decides what to do
// with the cent that three-way splits leave over.
func CalculateShares(amount money.Amount, method SplitMethod, input SplitInput, members []MemberID) (map[MemberID]money.Amount, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	switch method {
	case SplitEqually:
		return equalShares(amount, members), nil
	case SplitPercentages:
		return percentageShares(amount, input.Percentages, members)
	case SplitCustom:
		return customShares(amount, input.Shares, members)
	default:
		return nil, ErrUnknownSplitMethod
	}
}

func equalShares(amount money.Amount, members []MemberID) map[MemberID]money.Amount {
	share := amount.DivInt(int64(len(members))).Round2()
	debtors := make(map[MemberID]money.Amount, len(members))
	for _, m := range members {
		debtors[m] = share
	}
	return debtors
}

func percentageShares(amount money.Amount, percentages map[MemberID]int, members []MemberID) (map[MemberID]money.Amount, error) {
	total := 0
	involved := 0
	for _, m := range members {
		p := percentages[m]
		if p < 0 || p > 100 {
			return nil, ErrInvalidAllocation
		}
		if p > 0 {
			involved++
		}
		total += p
	}
	if total != 100 || involved < 2 {
		return nil, ErrInvalidAllocation
	}

	debtors := make(map[MemberID]money.Amount, involved)
	for _, m := range members {
		p := percentages[m]
		if p == 0 {
			continue
		}
		debtors[m] = amount.MulInt(int64(p)).DivInt(100).Round2()
	}
	return debtors, nil
}

func customShares(amount money.Amount, shares map[MemberID]money.Amount, members []MemberID) (map[MemberID]money.Amount, error) {
	sum := money.Zero
	debtors := make(map[MemberID]money.Amount)
	for _, m := range members {
		share, ok := shares[m]
		if !ok || share.IsZero() {
			continue
		}
		if share.IsNegative() {
			return nil, ErrInvalidAllocation
		}
		// One member carrying the whole amount while others are selected is
		// a single-payer expense disguised as a split.
		if len(members) > 1 && share.ApproxEqual(amount) {
			return nil, ErrInvalidAllocation
		}
		debtors[m] = share.Round2()
		sum = sum.Add(share)
	}
	if !sum.ApproxEqual(amount) {
		return nil, ErrInvalidAllocation
	}
	return debtors, nil
}
