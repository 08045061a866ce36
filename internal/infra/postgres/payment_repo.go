package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divvyapp/divvy/internal/ledger"
	"github.com/divvyapp/divvy/internal/module/payment"
	"github.com/divvyapp/divvy/pkg/money"
)

// PaymentRepository implements the payment repository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, event_id, group_id, from_member, to_member, amount::text, expense_id, note, created_at`

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (id, event_id, group_id, from_member, to_member, amount, expense_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.EventID,
		p.GroupID,
		string(p.From),
		string(p.To),
		p.Amount.String(),
		p.ExpenseID,
		p.Note,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByEvent retrieves all payments of an event
func (r *PaymentRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE event_id = $1 ORDER BY created_at`
	return r.list(ctx, query, eventID)
}

// ListByGroup retrieves all payments across every event of a group
func (r *PaymentRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE group_id = $1 ORDER BY created_at`
	return r.list(ctx, query, groupID)
}

// Delete deletes a payment
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, arg any) ([]payment.Payment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var from, to, amount string
	var expenseID *uuid.UUID

	err := row.Scan(
		&p.ID,
		&p.EventID,
		&p.GroupID,
		&from,
		&to,
		&amount,
		&expenseID,
		&p.Note,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.From = ledger.MemberID(from)
	p.To = ledger.MemberID(to)
	p.ExpenseID = expenseID
	if p.Amount, err = money.FromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse payment amount: %w", err)
	}

	return &p, nil
}
