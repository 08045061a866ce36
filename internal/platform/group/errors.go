package group

import "errors"

// Group domain errors
var (
	ErrInvalidGroupName   = errors.New("group name must not be empty")
	ErrInvalidEventName   = errors.New("event name must not be empty")
	ErrGroupNotFound      = errors.New("group not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrMemberNotFound     = errors.New("member not found in group")
	ErrAlreadyMember      = errors.New("user is already a member of this group")
	ErrNotAGuest          = errors.New("member is not a guest")
	ErrNotGroupMember     = errors.New("user is not a member of this group")
	ErrOutstandingBalance = errors.New("member has outstanding balances")
	ErrGroupNotSettled    = errors.New("group has unsettled balances")
	ErrGuestHasHistory    = errors.New("guest appears in recorded expenses or payments")
	ErrTooFewParticipants = errors.New("removal would leave too few participants")
)
