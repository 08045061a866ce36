package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvyapp/divvy/pkg/money"
)

func TestAmount_Round2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"third of hundred", "33.333333", "33.33"},
		{"half cent rounds up", "0.005", "0.01"},
		{"negative half cent", "-0.005", "-0.01"},
		{"already cents", "12.50", "12.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := money.MustFromString(tt.in)
			assert.Equal(t, tt.want, a.Round2().String())
		})
	}
}

func TestAmount_DivisionDoesNotRound(t *testing.T) {
	// 100/3 three times must sum back to ~100 before any rounding is applied
	hundred := money.MustFromString("100")
	third := hundred.DivInt(3)

	total := money.Sum(third, third, third)
	assert.True(t, total.ApproxEqual(hundred))
}

func TestAmount_IsSettled(t *testing.T) {
	assert.True(t, money.Zero.IsSettled())
	assert.True(t, money.MustFromString("0.01").IsSettled())
	assert.True(t, money.MustFromString("-0.01").IsSettled())
	assert.False(t, money.MustFromString("0.02").IsSettled())
}

func TestAmount_GreaterThanEpsilon(t *testing.T) {
	assert.False(t, money.MustFromString("0.01").GreaterThanEpsilon())
	assert.True(t, money.MustFromString("0.02").GreaterThanEpsilon())
	assert.False(t, money.MustFromString("-5").GreaterThanEpsilon())
}

func TestAmount_MulFrac(t *testing.T) {
	// share 33.33 of a 100 expense paid 60/40 by two payers
	share := money.MustFromString("33.33")
	amount := money.MustFromString("100")

	toFirst := share.MulFrac(money.MustFromString("60"), amount)
	toSecond := share.MulFrac(money.MustFromString("40"), amount)

	assert.True(t, toFirst.Add(toSecond).ApproxEqual(share))
}

func TestAmount_FromString_Invalid(t *testing.T) {
	_, err := money.FromString("not-a-number")
	require.Error(t, err)
}

func TestAmount_JSONRoundTrip(t *testing.T) {
	a := money.MustFromString("42.10")

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"42.10"`, string(data))

	var back money.Amount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(a))
}

func TestMin(t *testing.T) {
	a := money.MustFromString("10")
	b := money.MustFromString("7.50")
	assert.True(t, money.Min(a, b).Equal(b))
	assert.True(t, money.Min(b, a).Equal(b))
}
