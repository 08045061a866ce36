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
	"github.com/divvyapp/divvy/internal/platform/group"
)

// GroupRepository implements the group repository using PostgreSQL. It also
// materializes per-event consolidated debts into the events table.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new PostgreSQL group repository
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create creates a group together with its initial member rows
func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, name, owner_id, simplify_debts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, g.ID, g.Name, g.OwnerID, g.SimplifyDebts, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	for i := range g.Members {
		m := &g.Members[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (id, group_id, user_id, display_name, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, m.GroupID, m.UserID, m.DisplayName, m.JoinedAt)
		if err != nil {
			return fmt.Errorf("failed to create group member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a group with its members
func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	var g group.Group
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, simplify_debts, created_at, updated_at
		FROM groups
		WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.OwnerID, &g.SimplifyDebts, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, group.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := r.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Members = members

	return &g, nil
}

// ListByUser retrieves all groups a user belongs to
func (r *GroupRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]group.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.owner_id, g.simplify_debts, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []group.Group
	for rows.Next() {
		var g group.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.SimplifyDebts, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	for i := range groups {
		members, err := r.listMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}

	return groups, nil
}

// Update updates group attributes
func (r *GroupRepository) Update(ctx context.Context, g *group.Group) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE groups
		SET name = $1, simplify_debts = $2, updated_at = $3
		WHERE id = $4
	`, g.Name, g.SimplifyDebts, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrGroupNotFound
	}
	return nil
}

// Delete deletes a group; members, events, expenses and payments cascade
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrGroupNotFound
	}
	return nil
}

// AddMember adds a member or guest row
func (r *GroupRepository) AddMember(ctx context.Context, m *group.Member) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_members (id, group_id, user_id, display_name, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.GroupID, m.UserID, m.DisplayName, m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return group.ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a member row
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND id = $2
	`, groupID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrMemberNotFound
	}
	return nil
}

// CreateEvent creates an event
func (r *GroupRepository) CreateEvent(ctx context.Context, e *group.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, group_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.GroupID, e.Name, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID
func (r *GroupRepository) GetEvent(ctx context.Context, id uuid.UUID) (*group.Event, error) {
	var e group.Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, group_id, name, created_at, updated_at
		FROM events
		WHERE id = $1
	`, id).Scan(&e.ID, &e.GroupID, &e.Name, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, group.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

// ListEvents retrieves all events of a group
func (r *GroupRepository) ListEvents(ctx context.Context, groupID uuid.UUID) ([]group.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, name, created_at, updated_at
		FROM events
		WHERE group_id = $1
		ORDER BY created_at
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []group.Event
	for rows.Next() {
		var e group.Event
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// UpdateEvent updates event attributes
func (r *GroupRepository) UpdateEvent(ctx context.Context, e *group.Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events SET name = $1, updated_at = $2 WHERE id = $3
	`, e.Name, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrEventNotFound
	}
	return nil
}

// DeleteEvent deletes an event; its expenses and payments cascade
func (r *GroupRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrEventNotFound
	}
	return nil
}

// SaveEventDebts stores the event's consolidated debt matrix as JSONB
func (r *GroupRepository) SaveEventDebts(ctx context.Context, eventID uuid.UUID, debts ledger.BalanceMatrix) error {
	data, err := json.Marshal(debts)
	if err != nil {
		return fmt.Errorf("failed to marshal event debts: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE events SET current_debts = $1 WHERE id = $2
	`, data, eventID)
	if err != nil {
		return fmt.Errorf("failed to save event debts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return group.ErrEventNotFound
	}
	return nil
}

// GetEventDebts loads the event's materialized debt matrix
func (r *GroupRepository) GetEventDebts(ctx context.Context, eventID uuid.UUID) (ledger.BalanceMatrix, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `
		SELECT current_debts FROM events WHERE id = $1
	`, eventID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, group.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event debts: %w", err)
	}

	matrix := make(ledger.BalanceMatrix)
	if err := json.Unmarshal(data, &matrix); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event debts: %w", err)
	}
	return matrix, nil
}

func (r *GroupRepository) listMembers(ctx context.Context, groupID uuid.UUID) ([]group.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, user_id, display_name, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []group.Member
	for rows.Next() {
		var m group.Member
		var userID *uuid.UUID
		if err := rows.Scan(&m.ID, &m.GroupID, &userID, &m.DisplayName, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.UserID = userID
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}
