package balance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/internal/platform/group"
	"github.com/divvyapp/divvy/pkg/logger"
	"github.com/divvyapp/divvy/pkg/money"
)

// MockExpenseSource is a mock implementation of ExpenseSource
type MockExpenseSource struct {
	mock.Mock
}

func (m *MockExpenseSource) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]expense.Expense, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.Expense), args.Error(1)
}

func (m *MockExpenseSource) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]expense.Expense, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.Expense), args.Error(1)
}

// MockPaymentSource is a mock implementation of PaymentSource
type MockPaymentSource struct {
	mock.Mock
}

func (m *MockPaymentSource) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentSource) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

// MockGroupSource is a mock implementation of GroupSource
type MockGroupSource struct {
	mock.Mock
}

func (m *MockGroupSource) GetByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*group.Group), args.Error(1)
}

func (m *MockGroupSource) ListEvents(ctx context.Context, groupID uuid.UUID) ([]group.Event, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]group.Event), args.Error(1)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetMatrix(ctx context.Context, groupID uuid.UUID) (ledger.BalanceMatrix, bool, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(ledger.BalanceMatrix), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetMatrix(ctx context.Context, groupID uuid.UUID, matrix ledger.BalanceMatrix) error {
	args := m.Called(ctx, groupID, matrix)
	return args.Error(0)
}

func (m *MockCache) DeleteMatrix(ctx context.Context, groupID uuid.UUID) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

// MockEventDebtStore is a mock implementation of EventDebtStore
type MockEventDebtStore struct {
	mock.Mock
}

func (m *MockEventDebtStore) SaveEventDebts(ctx context.Context, eventID uuid.UUID, debts ledger.BalanceMatrix) error {
	args := m.Called(ctx, eventID, debts)
	return args.Error(0)
}

type fixture struct {
	expenses *MockExpenseSource
	payments *MockPaymentSource
	groups   *MockGroupSource
	cache    *MockCache
	debts    *MockEventDebtStore
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		expenses: new(MockExpenseSource),
		payments: new(MockPaymentSource),
		groups:   new(MockGroupSource),
		cache:    new(MockCache),
		debts:    new(MockEventDebtStore),
	}
	f.svc = NewService(f.expenses, f.payments, f.groups, f.cache, f.debts, logger.NewDefault("test"))
	return f
}

func amt(s string) money.Amount {
	return money.MustFromString(s)
}

func dinner(eventID, groupID uuid.UUID) expense.Expense {
	return expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		GroupID:     groupID,
		Description: "Dinner",
		Amount:      amt("100"),
		Payers:      map[ledger.MemberID]money.Amount{"alice": amt("100")},
		Debtors: map[ledger.MemberID]money.Amount{
			"alice": amt("33.33"),
			"bob":   amt("33.33"),
			"carol": amt("33.34"),
		},
	}
}

func TestEventBalances_MaterializesDebts(t *testing.T) {
	f := newFixture()
	eventID := uuid.New()
	groupID := uuid.New()

	f.expenses.On("ListByEvent", mock.Anything, eventID).Return([]expense.Expense{dinner(eventID, groupID)}, nil)
	f.payments.On("ListByEvent", mock.Anything, eventID).Return([]payment.Payment{}, nil)
	f.debts.On("SaveEventDebts", mock.Anything, eventID, mock.Anything).Return(nil)

	matrix, err := f.svc.EventBalances(context.Background(), eventID)
	require.NoError(t, err)

	assert.Equal(t, "33.33", matrix.Amount("bob", "alice").String())
	assert.Equal(t, "33.34", matrix.Amount("carol", "alice").String())
	f.debts.AssertExpectations(t)
}

func TestGroupBalances_ServesFromCache(t *testing.T) {
	f := newFixture()
	groupID := uuid.New()

	cached := make(ledger.BalanceMatrix)
	f.cache.On("GetMatrix", mock.Anything, groupID).Return(cached, true, nil)

	matrix, err := f.svc.GroupBalances(context.Background(), groupID)
	require.NoError(t, err)
	assert.True(t, matrix.IsEmpty())
	f.expenses.AssertNotCalled(t, "ListByGroup")
}

func TestGroupBalances_CacheMissComputesAndStores(t *testing.T) {
	f := newFixture()
	eventID := uuid.New()
	groupID := uuid.New()

	f.cache.On("GetMatrix", mock.Anything, groupID).Return(nil, false, nil)
	f.expenses.On("ListByGroup", mock.Anything, groupID).Return([]expense.Expense{dinner(eventID, groupID)}, nil)
	f.payments.On("ListByGroup", mock.Anything, groupID).Return([]payment.Payment{}, nil)
	f.cache.On("SetMatrix", mock.Anything, groupID, mock.Anything).Return(nil)

	matrix, err := f.svc.GroupBalances(context.Background(), groupID)
	require.NoError(t, err)

	assert.Equal(t, "33.33", matrix.Amount("bob", "alice").String())
	f.cache.AssertExpectations(t)
}

func TestGroupSettlements_RespectsSimplifyToggle(t *testing.T) {
	f := newFixture()
	groupID := uuid.New()

	// chain: alice owes bob 50, bob owes carol 50
	matrix := make(ledger.BalanceMatrix)
	matrix["alice"] = map[ledger.MemberID]money.Amount{"bob": amt("50")}
	matrix["bob"] = map[ledger.MemberID]money.Amount{"carol": amt("50")}
	f.cache.On("GetMatrix", mock.Anything, groupID).Return(matrix, true, nil)

	g := &group.Group{ID: groupID, Name: "Trip", SimplifyDebts: false}
	f.groups.On("GetByID", mock.Anything, groupID).Return(g, nil)

	plan, err := f.svc.GroupSettlements(context.Background(), groupID)
	require.NoError(t, err)
	assert.False(t, plan.Simplified)
	assert.Len(t, plan.Transactions, 2)

	g.SimplifyDebts = true
	plan, err = f.svc.GroupSettlements(context.Background(), groupID)
	require.NoError(t, err)
	assert.True(t, plan.Simplified)
	require.Len(t, plan.Transactions, 1)
	assert.Equal(t, ledger.MemberID("alice"), plan.Transactions[0].From)
	assert.Equal(t, ledger.MemberID("carol"), plan.Transactions[0].To)
}

func TestCanLeaveGroup_IgnoresCache(t *testing.T) {
	f := newFixture()
	eventID := uuid.New()
	groupID := uuid.New()

	// a stale empty cache entry must not grant an exit
	f.expenses.On("ListByGroup", mock.Anything, groupID).Return([]expense.Expense{dinner(eventID, groupID)}, nil)
	f.payments.On("ListByGroup", mock.Anything, groupID).Return([]payment.Payment{}, nil)

	ok, err := f.svc.CanLeaveGroup(context.Background(), groupID, "bob", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	f.cache.AssertNotCalled(t, "GetMatrix")
}

func TestCanRemoveGuest_SettledHistoryStillBlocks(t *testing.T) {
	f := newFixture()
	eventID := uuid.New()
	groupID := uuid.New()

	guest := ledger.MemberID("guest-1")
	e := expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		GroupID:     groupID,
		Description: "Taxi",
		Amount:      amt("30"),
		Payers:      map[ledger.MemberID]money.Amount{"alice": amt("30")},
		Debtors:     map[ledger.MemberID]money.Amount{"alice": amt("15"), guest: amt("15")},
	}
	p := payment.Payment{
		ID:      uuid.New(),
		EventID: eventID,
		GroupID: groupID,
		From:    guest,
		To:      "alice",
		Amount:  amt("15"),
	}

	f.expenses.On("ListByGroup", mock.Anything, groupID).Return([]expense.Expense{e}, nil)
	f.payments.On("ListByGroup", mock.Anything, groupID).Return([]payment.Payment{p}, nil)
	f.groups.On("ListEvents", mock.Anything, groupID).Return([]group.Event{{ID: eventID, GroupID: groupID}}, nil)

	ok, err := f.svc.CanRemoveGuest(context.Background(), groupID, guest, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	// a guest who never participated can be removed
	ok, err = f.svc.CanRemoveGuest(context.Background(), groupID, "guest-2", 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNetPositions(t *testing.T) {
	f := newFixture()
	groupID := uuid.New()

	matrix := make(ledger.BalanceMatrix)
	matrix["bob"] = map[ledger.MemberID]money.Amount{"alice": amt("33.33")}
	matrix["carol"] = map[ledger.MemberID]money.Amount{"alice": amt("33.34")}
	f.cache.On("GetMatrix", mock.Anything, groupID).Return(matrix, true, nil)

	positions, err := f.svc.NetPositions(context.Background(), groupID)
	require.NoError(t, err)

	assert.Equal(t, "66.67", positions["alice"].String())
	assert.Equal(t, "-33.33", positions["bob"].String())
	assert.Equal(t, "-33.34", positions["carol"].String())
}

func TestInvalidateGroup(t *testing.T) {
	f := newFixture()
	groupID := uuid.New()

	f.cache.On("DeleteMatrix", mock.Anything, groupID).Return(nil)
	require.NoError(t, f.svc.InvalidateGroup(context.Background(), groupID))
	f.cache.AssertExpectations(t)
}
