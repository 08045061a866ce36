package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/money"
)

func amt(s string) money.Amount {
	return money.MustFromString(s)
}

func TestCalculateShares_Equally(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		members []ledger.MemberID
		want    map[ledger.MemberID]string
	}{
		{
			name:    "clean split",
			amount:  "90",
			members: []ledger.MemberID{"alice", "bob", "carol"},
			want:    map[ledger.MemberID]string{"alice": "30.00", "bob": "30.00", "carol": "30.00"},
		},
		{
			name:    "hundred three ways leaves a cent unreconciled",
			amount:  "100",
			members: []ledger.MemberID{"alice", "bob", "carol"},
			want:    map[ledger.MemberID]string{"alice": "33.33", "bob": "33.33", "carol": "33.33"},
		},
		{
			name:    "single member",
			amount:  "12.50",
			members: []ledger.MemberID{"alice"},
			want:    map[ledger.MemberID]string{"alice": "12.50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ledger.CalculateShares(amt(tt.amount), ledger.SplitEqually, ledger.SplitInput{}, tt.members)
			require.NoError(t, err)

			require.Len(t, shares, len(tt.want))
			for member, want := range tt.want {
				assert.Equal(t, want, shares[member].String(), "share of %s", member)
			}
		})
	}
}

func TestCalculateShares_Percentages(t *testing.T) {
	members := []ledger.MemberID{"alice", "bob", "carol"}

	shares, err := ledger.CalculateShares(amt("200"), ledger.SplitPercentages, ledger.SplitInput{
		Percentages: map[ledger.MemberID]int{"alice": 50, "bob": 30, "carol": 20},
	}, members)
	require.NoError(t, err)

	assert.Equal(t, "100.00", shares["alice"].String())
	assert.Equal(t, "60.00", shares["bob"].String())
	assert.Equal(t, "40.00", shares["carol"].String())
}

func TestCalculateShares_Percentages_ZeroPercentExcluded(t *testing.T) {
	members := []ledger.MemberID{"alice", "bob", "carol"}

	shares, err := ledger.CalculateShares(amt("100"), ledger.SplitPercentages, ledger.SplitInput{
		Percentages: map[ledger.MemberID]int{"alice": 60, "bob": 40, "carol": 0},
	}, members)
	require.NoError(t, err)

	require.Len(t, shares, 2)
	_, ok := shares["carol"]
	assert.False(t, ok, "zero-percent member must not appear as debtor")
}

func TestCalculateShares_Percentages_Invalid(t *testing.T) {
	members := []ledger.MemberID{"alice", "bob"}

	tests := []struct {
		name        string
		percentages map[ledger.MemberID]int
	}{
		{"sum below hundred", map[ledger.MemberID]int{"alice": 50, "bob": 40}},
		{"sum above hundred", map[ledger.MemberID]int{"alice": 70, "bob": 40}},
		{"single member takes all", map[ledger.MemberID]int{"alice": 100, "bob": 0}},
		{"negative percentage", map[ledger.MemberID]int{"alice": 120, "bob": -20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.CalculateShares(amt("100"), ledger.SplitPercentages, ledger.SplitInput{
				Percentages: tt.percentages,
			}, members)
			assert.ErrorIs(t, err, ledger.ErrInvalidAllocation)
		})
	}
}

func TestCalculateShares_Custom(t *testing.T) {
	members := []ledger.MemberID{"alice", "bob", "carol"}

	shares, err := ledger.CalculateShares(amt("100"), ledger.SplitCustom, ledger.SplitInput{
		Shares: map[ledger.MemberID]money.Amount{
			"alice": amt("70"),
			"bob":   amt("30"),
		},
	}, members)
	require.NoError(t, err)

	require.Len(t, shares, 2)
	assert.Equal(t, "70.00", shares["alice"].String())
	assert.Equal(t, "30.00", shares["bob"].String())
}

func TestCalculateShares_Custom_Invalid(t *testing.T) {
	members := []ledger.MemberID{"alice", "bob"}

	tests := []struct {
		name   string
		shares map[ledger.MemberID]money.Amount
	}{
		{"does not sum to amount", map[ledger.MemberID]money.Amount{"alice": amt("40"), "bob": amt("40")}},
		{"one member carries everything", map[ledger.MemberID]money.Amount{"alice": amt("100")}},
		{"negative share", map[ledger.MemberID]money.Amount{"alice": amt("120"), "bob": amt("-20")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.CalculateShares(amt("100"), ledger.SplitCustom, ledger.SplitInput{Shares: tt.shares}, members)
			assert.ErrorIs(t, err, ledger.ErrInvalidAllocation)
		})
	}
}

func TestCalculateShares_Preconditions(t *testing.T) {
	_, err := ledger.CalculateShares(amt("0"), ledger.SplitEqually, ledger.SplitInput{}, []ledger.MemberID{"alice"})
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)

	_, err = ledger.CalculateShares(amt("10"), ledger.SplitEqually, ledger.SplitInput{}, nil)
	assert.ErrorIs(t, err, ledger.ErrNoMembers)

	_, err = ledger.CalculateShares(amt("10"), ledger.SplitMethod("HALVSIES"), ledger.SplitInput{}, []ledger.MemberID{"alice"})
	assert.ErrorIs(t, err, ledger.ErrUnknownSplitMethod)
}
