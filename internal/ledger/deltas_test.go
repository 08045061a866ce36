package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/money"
)

func TestExpenseDeltas_SinglePayer(t *testing.T) {
	e := ledger.Expense{
		ID:     uuid.New(),
		Amount: amt("100"),
		Payers: map[ledger.MemberID]money.Amount{"alice": amt("100")},
		Debtors: map[ledger.MemberID]money.Amount{
			"alice": amt("33.33"),
			"bob":   amt("33.33"),
			"carol": amt("33.34"),
		},
	}

	deltas, err := ledger.ExpenseDeltas(e)
	require.NoError(t, err)

	// alice nets against herself, so only bob and carol owe
	require.Len(t, deltas, 2)
	assert.Equal(t, ledger.MemberID("bob"), deltas[0].Debtor)
	assert.Equal(t, ledger.MemberID("alice"), deltas[0].Creditor)
	assert.Equal(t, "33.33", deltas[0].Amount.Round2().String())
	assert.Equal(t, ledger.MemberID("carol"), deltas[1].Debtor)
	assert.Equal(t, "33.34", deltas[1].Amount.Round2().String())
}

// Conservation: with payers disjoint from debtors, the deltas grouped by
// payer sum to what that payer put in, and grouped by debtor sum to that
// debtor's share.
func TestExpenseDeltas_Conservation(t *testing.T) {
	e := ledger.Expense{
		ID:     uuid.New(),
		Amount: amt("90"),
		Payers: map[ledger.MemberID]money.Amount{"payer1": amt("60"), "payer2": amt("30")},
		Debtors: map[ledger.MemberID]money.Amount{
			"alice": amt("30"),
			"bob":   amt("30"),
			"carol": amt("30"),
		},
	}

	deltas, err := ledger.ExpenseDeltas(e)
	require.NoError(t, err)
	require.Len(t, deltas, 6)

	byPayer := make(map[ledger.MemberID]money.Amount)
	byDebtor := make(map[ledger.MemberID]money.Amount)
	for _, d := range deltas {
		byPayer[d.Creditor] = byPayer[d.Creditor].Add(d.Amount)
		byDebtor[d.Debtor] = byDebtor[d.Debtor].Add(d.Amount)
	}

	for payer, paid := range e.Payers {
		assert.True(t, byPayer[payer].ApproxEqual(paid), "payer %s: got %s want %s", payer, byPayer[payer], paid)
	}
	for debtor, share := range e.Debtors {
		assert.True(t, byDebtor[debtor].ApproxEqual(share), "debtor %s: got %s want %s", debtor, byDebtor[debtor], share)
	}
}

func TestExpenseDeltas_DebtorWhoAlsoPaid(t *testing.T) {
	// bob paid a third of the expense and owes a third: his deltas to alice
	// cover only the part of alice's outlay his share maps onto, and no
	// self-debt is recorded.
	e := ledger.Expense{
		ID:     uuid.New(),
		Amount: amt("90"),
		Payers: map[ledger.MemberID]money.Amount{"alice": amt("60"), "bob": amt("30")},
		Debtors: map[ledger.MemberID]money.Amount{
			"alice": amt("30"),
			"bob":   amt("30"),
			"carol": amt("30"),
		},
	}

	deltas, err := ledger.ExpenseDeltas(e)
	require.NoError(t, err)

	for _, d := range deltas {
		assert.NotEqual(t, d.Debtor, d.Creditor, "self-debt must never be recorded")
	}

	// bob → alice: 30 * 60/90 = 20
	var bobToAlice money.Amount
	for _, d := range deltas {
		if d.Debtor == "bob" && d.Creditor == "alice" {
			bobToAlice = bobToAlice.Add(d.Amount)
		}
	}
	assert.Equal(t, "20.00", bobToAlice.Round2().String())
}

func TestExpenseDeltas_Inconsistent(t *testing.T) {
	e := ledger.Expense{
		ID:      uuid.New(),
		Amount:  amt("100"),
		Payers:  map[ledger.MemberID]money.Amount{"alice": amt("100")},
		Debtors: map[ledger.MemberID]money.Amount{"bob": amt("50")},
	}

	_, err := ledger.ExpenseDeltas(e)
	assert.ErrorIs(t, err, ledger.ErrInconsistentExpense)
}

func TestPaymentDeltas_FreeStanding(t *testing.T) {
	p := ledger.Payment{ID: uuid.New(), From: "bob", To: "alice", Amount: amt("33.33")}

	deltas, err := ledger.PaymentDeltas(p, nil)
	require.NoError(t, err)

	require.Len(t, deltas, 1)
	assert.Equal(t, ledger.MemberID("bob"), deltas[0].Debtor)
	assert.Equal(t, ledger.MemberID("alice"), deltas[0].Creditor)
	assert.Equal(t, "-33.33", deltas[0].Amount.String())
}

func TestPaymentDeltas_Earmarked_MultiPayer(t *testing.T) {
	expenseID := uuid.New()
	expenses := map[uuid.UUID]ledger.Expense{
		expenseID: {
			ID:      expenseID,
			Amount:  amt("100"),
			Payers:  map[ledger.MemberID]money.Amount{"alice": amt("50"), "bob": amt("50")},
			Debtors: map[ledger.MemberID]money.Amount{"carol": amt("100")},
		},
	}

	p := ledger.Payment{ID: uuid.New(), From: "carol", To: "alice", Amount: amt("60"), ExpenseID: &expenseID}

	deltas, err := ledger.PaymentDeltas(p, expenses)
	require.NoError(t, err)

	// the repayment is credited to both payers in proportion to their outlay
	require.Len(t, deltas, 2)
	assert.Equal(t, "-30.00", deltas[0].Amount.Round2().String())
	assert.Equal(t, "-30.00", deltas[1].Amount.Round2().String())
}

func TestPaymentDeltas_Errors(t *testing.T) {
	self := ledger.Payment{ID: uuid.New(), From: "alice", To: "alice", Amount: amt("5")}
	_, err := ledger.PaymentDeltas(self, nil)
	assert.ErrorIs(t, err, ledger.ErrSelfPayment)

	missing := uuid.New()
	orphan := ledger.Payment{ID: uuid.New(), From: "alice", To: "bob", Amount: amt("5"), ExpenseID: &missing}
	_, err = ledger.PaymentDeltas(orphan, nil)
	assert.ErrorIs(t, err, ledger.ErrUnknownExpense)

	zero := ledger.Payment{ID: uuid.New(), From: "alice", To: "bob", Amount: money.Zero}
	_, err = ledger.PaymentDeltas(zero, nil)
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)
}
