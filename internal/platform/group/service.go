package group

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/pkg/logger"
)

// Service handles group business logic
type Service struct {
	repo    Repository
	checker EligibilityChecker
	log     *logger.Logger
}

// NewService creates a new group service
func NewService(repo Repository, checker EligibilityChecker, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		checker: checker,
		log:     log,
	}
}

// Create creates a group with the creating user as its first member
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, ownerName, name string) (*Group, error) {
	now := time.Now()
	owner := ownerID
	g := &Group{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
		Members: []Member{{
			ID:          uuid.New(),
			UserID:      &owner,
			DisplayName: ownerName,
			JoinedAt:    now,
		}},
	}
	g.Members[0].GroupID = g.ID

	if err := g.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.log.WithContext(ctx).Info("group created", "group_id", g.ID)
	return g, nil
}

// Get retrieves a group, requiring the caller to be a member
func (s *Service) Get(ctx context.Context, groupID, userID uuid.UUID) (*Group, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if _, ok := g.MemberByUserID(userID); !ok {
		return nil, ErrNotGroupMember
	}

	return g, nil
}

// ListForUser retrieves all groups the user belongs to
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Group, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Rename changes the group's name
func (s *Service) Rename(ctx context.Context, groupID, userID uuid.UUID, name string) (*Group, error) {
	g, err := s.Get(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	g.Name = strings.TrimSpace(name)
	g.UpdatedAt = time.Now()
	if err := g.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return g, nil
}

// SetSimplifyDebts toggles whether settlement queries return the simplified
// plan instead of the raw matrix
func (s *Service) SetSimplifyDebts(ctx context.Context, groupID, userID uuid.UUID, enabled bool) (*Group, error) {
	g, err := s.Get(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	g.SimplifyDebts = enabled
	g.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return g, nil
}

// AddUser adds a registered user to the group
func (s *Service) AddUser(ctx context.Context, groupID, callerID, userID uuid.UUID, displayName string) (*Member, error) {
	g, err := s.Get(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}

	if _, ok := g.MemberByUserID(userID); ok {
		return nil, ErrAlreadyMember
	}

	linked := userID
	m := &Member{
		ID:          uuid.New(),
		GroupID:     groupID,
		UserID:      &linked,
		DisplayName: strings.TrimSpace(displayName),
		JoinedAt:    time.Now(),
	}

	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return m, nil
}

// AddGuest adds a guest participant with no linked account
func (s *Service) AddGuest(ctx context.Context, groupID, callerID uuid.UUID, displayName string) (*Member, error) {
	if _, err := s.Get(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	m := &Member{
		ID:          uuid.New(),
		GroupID:     groupID,
		DisplayName: strings.TrimSpace(displayName),
		JoinedAt:    time.Now(),
	}

	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to add guest: %w", err)
	}

	return m, nil
}

// Leave removes the caller from the group. Blocked while the member owes or
// is owed anything across any event.
func (s *Service) Leave(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	m, ok := g.MemberByUserID(userID)
	if !ok {
		return ErrNotGroupMember
	}

	ok, err = s.checker.CanLeaveGroup(ctx, groupID, m.LedgerID(), g.ParticipantCount())
	if err != nil {
		return fmt.Errorf("failed to check leave eligibility: %w", err)
	}
	if !ok {
		return ErrOutstandingBalance
	}

	if err := s.repo.RemoveMember(ctx, groupID, m.ID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.log.WithContext(ctx).Info("member left group", "group_id", groupID, "member_id", m.ID)
	return nil
}

// RemoveGuest removes a guest. Stricter than Leave: any recorded
// participation blocks removal even when fully settled.
func (s *Service) RemoveGuest(ctx context.Context, groupID, callerID, memberID uuid.UUID) error {
	g, err := s.Get(ctx, groupID, callerID)
	if err != nil {
		return err
	}

	m, ok := g.MemberByID(memberID)
	if !ok {
		return ErrMemberNotFound
	}
	if !m.IsGuest() {
		return ErrNotAGuest
	}

	ok, err = s.checker.CanRemoveGuest(ctx, groupID, m.LedgerID(), g.ParticipantCount())
	if err != nil {
		return fmt.Errorf("failed to check guest removal eligibility: %w", err)
	}
	if !ok {
		return ErrGuestHasHistory
	}

	if err := s.repo.RemoveMember(ctx, groupID, m.ID); err != nil {
		return fmt.Errorf("failed to remove guest: %w", err)
	}

	return nil
}

// Delete deletes the group. Blocked while any balance remains anywhere.
func (s *Service) Delete(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.Get(ctx, groupID, userID)
	if err != nil {
		return err
	}

	ok, err := s.checker.CanDeleteGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to check delete eligibility: %w", err)
	}
	if !ok {
		return ErrGroupNotSettled
	}

	if err := s.repo.Delete(ctx, g.ID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.log.WithContext(ctx).Info("group deleted", "group_id", g.ID)
	return nil
}

// CreateEvent creates an event inside the group
func (s *Service) CreateEvent(ctx context.Context, groupID, userID uuid.UUID, name string) (*Event, error) {
	if _, err := s.Get(ctx, groupID, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	e := &Event{
		ID:        uuid.New(),
		GroupID:   groupID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return e, nil
}

// ListEvents retrieves the group's events
func (s *Service) ListEvents(ctx context.Context, groupID, userID uuid.UUID) ([]Event, error) {
	if _, err := s.Get(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, groupID)
}

// RenameEvent changes an event's name
func (s *Service) RenameEvent(ctx context.Context, groupID, userID, eventID uuid.UUID, name string) (*Event, error) {
	if _, err := s.Get(ctx, groupID, userID); err != nil {
		return nil, err
	}

	e, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.GroupID != groupID {
		return nil, ErrEventNotFound
	}

	e.Name = strings.TrimSpace(name)
	e.UpdatedAt = time.Now()
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return e, nil
}

// DeleteEvent deletes an event with its expenses and payments
func (s *Service) DeleteEvent(ctx context.Context, groupID, userID, eventID uuid.UUID) error {
	if _, err := s.Get(ctx, groupID, userID); err != nil {
		return err
	}

	e, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if e.GroupID != groupID {
		return ErrEventNotFound
	}

	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}
