package expense

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/pkg/logger"
	"github.com/divvyapp/divvy/pkg/money"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, e *Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Expense), args.Error(1)
}

func (m *MockRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Expense, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Expense), args.Error(1)
}

func (m *MockRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Expense, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Expense), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, e *Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockInvalidator is a mock implementation of BalanceInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateGroup(ctx context.Context, groupID uuid.UUID) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func amt(s string) money.Amount {
	return money.MustFromString(s)
}

func newTestService(repo *MockRepository, inv *MockInvalidator) *Service {
	return NewService(repo, inv, logger.NewDefault("test"))
}

func equalSplitInput() CreateInput {
	return CreateInput{
		EventID:      uuid.New(),
		GroupID:      uuid.New(),
		Description:  "Dinner",
		Amount:       amt("100"),
		Payers:       map[ledger.MemberID]money.Amount{"alice": amt("100")},
		SplitMethod:  ledger.SplitEqually,
		Participants: []ledger.MemberID{"alice", "bob", "carol"},
	}
}

func TestCreate_EqualSplitResidueLandsOnLastMember(t *testing.T) {
	repo := new(MockRepository)
	inv := new(MockInvalidator)
	svc := newTestService(repo, inv)

	input := equalSplitInput()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*expense.Expense")).Return(nil)
	inv.On("InvalidateGroup", mock.Anything, input.GroupID).Return(nil)

	e, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "33.33", e.Debtors["alice"].String())
	assert.Equal(t, "33.33", e.Debtors["bob"].String())
	assert.Equal(t, "33.34", e.Debtors["carol"].String())

	total := money.Sum(e.Debtors["alice"], e.Debtors["bob"], e.Debtors["carol"])
	assert.True(t, total.Equal(e.Amount))
	inv.AssertExpectations(t)
}

func TestCreate_PercentageSplit(t *testing.T) {
	repo := new(MockRepository)
	inv := new(MockInvalidator)
	svc := newTestService(repo, inv)

	input := equalSplitInput()
	input.Amount = amt("200")
	input.Payers = map[ledger.MemberID]money.Amount{"bob": amt("200")}
	input.SplitMethod = ledger.SplitPercentages
	input.Percentages = map[ledger.MemberID]int{"alice": 50, "bob": 30, "carol": 20}

	repo.On("Create", mock.Anything, mock.AnythingOfType("*expense.Expense")).Return(nil)
	inv.On("InvalidateGroup", mock.Anything, input.GroupID).Return(nil)

	e, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "100.00", e.Debtors["alice"].String())
	assert.Equal(t, "60.00", e.Debtors["bob"].String())
	assert.Equal(t, "40.00", e.Debtors["carol"].String())
}

func TestCreate_InvalidSplitRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, new(MockInvalidator))

	input := equalSplitInput()
	input.SplitMethod = ledger.SplitPercentages
	input.Percentages = map[ledger.MemberID]int{"alice": 60, "bob": 30}

	_, err := svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, ledger.ErrInvalidAllocation)
	repo.AssertNotCalled(t, "Create")
}

func TestCreate_BlankDescription(t *testing.T) {
	svc := newTestService(new(MockRepository), new(MockInvalidator))

	input := equalSplitInput()
	input.Description = "  "

	_, err := svc.Create(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidDescription)
}

func TestUpdate_AmountBelowPaidRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, new(MockInvalidator))

	stored := &Expense{
		ID:         uuid.New(),
		GroupID:    uuid.New(),
		Amount:     amt("100"),
		AmountPaid: amt("60"),
	}
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	input := equalSplitInput()
	input.Amount = amt("50")

	_, err := svc.Update(context.Background(), stored.ID, input)
	assert.ErrorIs(t, err, ErrAmountBelowPaid)
}

func TestDelete_BlockedWithEarmarkedPayments(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, new(MockInvalidator))

	stored := &Expense{ID: uuid.New(), GroupID: uuid.New(), Amount: amt("100"), AmountPaid: amt("10")}
	repo.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	err := svc.Delete(context.Background(), stored.ID)
	assert.ErrorIs(t, err, ErrExpenseHasPayments)
	repo.AssertNotCalled(t, "Delete")
}

func TestApplyPayment(t *testing.T) {
	e := &Expense{Amount: amt("100"), AmountPaid: amt("90")}

	assert.ErrorIs(t, e.ApplyPayment(amt("20")), ErrExceedsOutstanding)

	require.NoError(t, e.ApplyPayment(amt("10")))
	assert.True(t, e.Paid)
	assert.True(t, e.Outstanding().IsZero())
}

func TestReversePayment(t *testing.T) {
	e := &Expense{Amount: amt("100"), AmountPaid: amt("100"), Paid: true}

	e.ReversePayment(amt("40"))
	assert.False(t, e.Paid)
	assert.Equal(t, "60.00", e.AmountPaid.String())
}

func TestAbsorbResidue_NoResidueNoChange(t *testing.T) {
	debtors := map[ledger.MemberID]money.Amount{"alice": amt("50"), "bob": amt("50")}
	absorbResidue(amt("100"), debtors)

	assert.Equal(t, "50.00", debtors["alice"].String())
	assert.Equal(t, "50.00", debtors["bob"].String())
}
