package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/expense"
	"github.com/divvyapp/divvy/pkg/money"
)

// ExpenseRepository implements the expense repository using PostgreSQL.
// Payer and debtor allocations are stored as JSONB maps keyed by member ID;
// amounts travel as strings to keep NUMERIC precision intact.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new PostgreSQL expense repository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

const expenseColumns = `id, event_id, group_id, description, amount::text, split_method, payers, debtors, amount_paid::text, paid, created_at, updated_at`

// Create creates a new expense
func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	payers, debtors, err := marshalAllocations(e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO expenses (id, event_id, group_id, description, amount, split_method, payers, debtors, amount_paid, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		e.ID,
		e.EventID,
		e.GroupID,
		e.Description,
		e.Amount.String(),
		string(e.SplitMethod),
		payers,
		debtors,
		e.AmountPaid.String(),
		e.Paid,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByEvent retrieves all expenses of an event
func (r *ExpenseRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]expense.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE event_id = $1 ORDER BY created_at`
	return r.list(ctx, query, eventID)
}

// ListByGroup retrieves all expenses across every event of a group
func (r *ExpenseRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]expense.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = $1 ORDER BY created_at`
	return r.list(ctx, query, groupID)
}

// Update updates an expense
func (r *ExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	payers, debtors, err := marshalAllocations(e)
	if err != nil {
		return err
	}

	query := `
		UPDATE expenses
		SET description = $1, amount = $2, split_method = $3, payers = $4, debtors = $5, amount_paid = $6, paid = $7, updated_at = $8
		WHERE id = $9
	`

	tag, err := r.pool.Exec(ctx, query,
		e.Description,
		e.Amount.String(),
		string(e.SplitMethod),
		payers,
		debtors,
		e.AmountPaid.String(),
		e.Paid,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrExpenseNotFound
	}

	return nil
}

// Delete deletes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) list(ctx context.Context, query string, arg any) ([]expense.Expense, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []expense.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(row pgx.Row) (*expense.Expense, error) {
	var e expense.Expense
	var amount, amountPaid, splitMethod string
	var payers, debtors []byte

	err := row.Scan(
		&e.ID,
		&e.EventID,
		&e.GroupID,
		&e.Description,
		&amount,
		&splitMethod,
		&payers,
		&debtors,
		&amountPaid,
		&e.Paid,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	e.SplitMethod = ledger.SplitMethod(splitMethod)
	if e.Amount, err = money.FromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse expense amount: %w", err)
	}
	if e.AmountPaid, err = money.FromString(amountPaid); err != nil {
		return nil, fmt.Errorf("failed to parse expense amount paid: %w", err)
	}
	if err := json.Unmarshal(payers, &e.Payers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payers: %w", err)
	}
	if err := json.Unmarshal(debtors, &e.Debtors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal debtors: %w", err)
	}

	return &e, nil
}

func marshalAllocations(e *expense.Expense) ([]byte, []byte, error) {
	payers, err := json.Marshal(e.Payers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal payers: %w", err)
	}
	debtors, err := json.Marshal(e.Debtors)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal debtors: %w", err)
	}
	return payers, debtors, nil
}
