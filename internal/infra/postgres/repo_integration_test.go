//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvyapp/divvy/internal/infra/postgres"
	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/internal/platform/group"
	"github.com/divvyapp/divvy/internal/platform/user"
	"github.com/divvyapp/divvy/pkg/money"
	"github.com/divvyapp/divvy/testutil/testdb"
)

var testDB *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close(ctx)
	if code != 0 {
		panic("tests failed")
	}
}

func setupTest(t *testing.T) context.Context {
	ctx := context.Background()
	require.NoError(t, testDB.Reset(ctx))
	return ctx
}

func createTestUser(t *testing.T, ctx context.Context) *user.User {
	t.Helper()

	u := &user.User{
		ID:          uuid.New(),
		Email:       "test-" + uuid.NewString()[:8] + "@example.com",
		DisplayName: "Test User",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, u.SetPassword("password123"))

	repo := postgres.NewUserRepository(testDB.DB.Pool)
	require.NoError(t, repo.Create(ctx, u))
	return u
}

func createTestGroup(t *testing.T, ctx context.Context, owner *user.User) *group.Group {
	t.Helper()

	ownerID := owner.ID
	g := &group.Group{
		ID:        uuid.New(),
		Name:      "Ski Trip",
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Members: []group.Member{
			{ID: uuid.New(), UserID: &ownerID, DisplayName: owner.DisplayName, JoinedAt: time.Now()},
			{ID: uuid.New(), DisplayName: "Guest Bob", JoinedAt: time.Now()},
		},
	}
	for i := range g.Members {
		g.Members[i].GroupID = g.ID
	}

	repo := postgres.NewGroupRepository(testDB.DB.Pool)
	require.NoError(t, repo.Create(ctx, g))
	return g
}

func createTestEvent(t *testing.T, ctx context.Context, groupID uuid.UUID) *group.Event {
	t.Helper()

	e := &group.Event{
		ID:        uuid.New(),
		GroupID:   groupID,
		Name:      "Day One",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	repo := postgres.NewGroupRepository(testDB.DB.Pool)
	require.NoError(t, repo.CreateEvent(ctx, e))
	return e
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := setupTest(t)
	repo := postgres.NewUserRepository(testDB.DB.Pool)

	u := createTestUser(t, ctx)

	got, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.DisplayName, got.DisplayName)
	assert.NoError(t, got.CheckPassword("password123"))

	dup := &user.User{
		ID:          uuid.New(),
		Email:       u.Email,
		DisplayName: "Imposter",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, dup.SetPassword("password123"))
	assert.ErrorIs(t, repo.Create(ctx, dup), user.ErrUserAlreadyExists)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestGroupRepository_CreateAndGet(t *testing.T) {
	ctx := setupTest(t)
	repo := postgres.NewGroupRepository(testDB.DB.Pool)

	owner := createTestUser(t, ctx)
	g := createTestGroup(t, ctx, owner)

	got, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, got.Name)
	assert.Equal(t, owner.ID, got.OwnerID)
	require.Len(t, got.Members, 2)

	member, ok := got.MemberByUserID(owner.ID)
	require.True(t, ok)
	assert.False(t, member.IsGuest())

	guests := 0
	for i := range got.Members {
		if got.Members[i].IsGuest() {
			guests++
			assert.Equal(t, "Guest Bob", got.Members[i].DisplayName)
		}
	}
	assert.Equal(t, 1, guests)

	groups, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g.ID, groups[0].ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, group.ErrGroupNotFound)
}

func TestGroupRepository_RemoveMember(t *testing.T) {
	ctx := setupTest(t)
	repo := postgres.NewGroupRepository(testDB.DB.Pool)

	owner := createTestUser(t, ctx)
	g := createTestGroup(t, ctx, owner)

	var guestID uuid.UUID
	for i := range g.Members {
		if g.Members[i].IsGuest() {
			guestID = g.Members[i].ID
		}
	}

	require.NoError(t, repo.RemoveMember(ctx, g.ID, guestID))

	got, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)

	assert.ErrorIs(t, repo.RemoveMember(ctx, g.ID, guestID), group.ErrMemberNotFound)
}

func TestGroupRepository_EventDebts(t *testing.T) {
	ctx := setupTest(t)
	repo := postgres.NewGroupRepository(testDB.DB.Pool)

	owner := createTestUser(t, ctx)
	g := createTestGroup(t, ctx, owner)
	e := createTestEvent(t, ctx, g.ID)

	alice := g.Members[0].LedgerID()
	bob := g.Members[1].LedgerID()
	debts := ledger.BalanceMatrix{
		bob: {alice: money.MustFromString("33.34")},
	}

	require.NoError(t, repo.SaveEventDebts(ctx, e.ID, debts))

	got, err := repo.GetEventDebts(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount(bob, alice).Equal(money.MustFromString("33.34")))

	// Overwriting replaces, not merges
	require.NoError(t, repo.SaveEventDebts(ctx, e.ID, ledger.BalanceMatrix{}))
	got, err = repo.GetEventDebts(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestExpenseRepository_RoundTrip(t *testing.T) {
	ctx := setupTest(t)
	repo := postgres.NewExpenseRepository(testDB.DB.Pool)

	owner := createTestUser(t, ctx)
	g := createTestGroup(t, ctx, owner)
	ev := createTestEvent(t, ctx, g.ID)

	alice := g.Members[0].LedgerID()
	bob := g.Members[1].LedgerID()

	exp := &expense.Expense{
		ID:          uuid.New(),
		EventID:     ev.ID,
		GroupID:     g.ID,
		Description: "Dinner",
		Amount:      money.MustFromString("100.00"),
		SplitMethod: ledger.SplitEqually,
		Payers:      map[ledger.MemberID]money.Amount{alice: money.MustFromString("100.00")},
		Debtors: map[ledger.MemberID]money.Amount{
			alice: money.MustFromString("50.00"),
			bob:   money.MustFromString("50.00"),
		},
		AmountPaid: money.Zero,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, repo.Create(ctx, exp))

	got, err := repo.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Description)
	assert.True(t, got.Amount.Equal(money.MustFromString("100.00")))
	assert.True(t, got.Payers[alice].Equal(money.MustFromString("100.00")))
	assert.True(t, got.Debtors[bob].Equal(money.MustFromString("50.00")))
	assert.False(t, got.Paid)

	got.AmountPaid = money.MustFromString("100.00")
	got.Paid = true
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, exp.ID)
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	assert.True(t, updated.AmountPaid.Equal(money.MustFromString("100.00")))

	list, err := repo.ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, exp.ID))
	_, err = repo.GetByID(ctx, exp.ID)
	assert.ErrorIs(t, err, expense.ErrExpenseNotFound)
}

func TestPaymentRepository_RoundTrip(t *testing.T) {
	ctx := setupTest(t)
	expenseRepo := postgres.NewExpenseRepository(testDB.DB.Pool)
	paymentRepo := postgres.NewPaymentRepository(testDB.DB.Pool)

	owner := createTestUser(t, ctx)
	g := createTestGroup(t, ctx, owner)
	ev := createTestEvent(t, ctx, g.ID)

	alice := g.Members[0].LedgerID()
	bob := g.Members[1].LedgerID()

	exp := &expense.Expense{
		ID:          uuid.New(),
		EventID:     ev.ID,
		GroupID:     g.ID,
		Description: "Taxi",
		Amount:      money.MustFromString("40.00"),
		SplitMethod: ledger.SplitEqually,
		Payers:      map[ledger.MemberID]money.Amount{alice: money.MustFromString("40.00")},
		Debtors: map[ledger.MemberID]money.Amount{
			alice: money.MustFromString("20.00"),
			bob:   money.MustFromString("20.00"),
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, expenseRepo.Create(ctx, exp))

	expenseID := exp.ID
	p := &payment.Payment{
		ID:        uuid.New(),
		EventID:   ev.ID,
		GroupID:   g.ID,
		From:      bob,
		To:        alice,
		Amount:    money.MustFromString("20.00"),
		ExpenseID: &expenseID,
		Note:      "taxi share",
		CreatedAt: time.Now(),
	}
	require.NoError(t, paymentRepo.Create(ctx, p))

	got, err := paymentRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, got.From)
	assert.Equal(t, alice, got.To)
	assert.True(t, got.IsEarmarked())
	require.NotNil(t, got.ExpenseID)
	assert.Equal(t, exp.ID, *got.ExpenseID)
	assert.Equal(t, "taxi share", got.Note)

	list, err := paymentRepo.ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, paymentRepo.Delete(ctx, p.ID))
	_, err = paymentRepo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
}
