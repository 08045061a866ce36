package ledger

// CanLeaveGroup reports whether a member may leave a group of memberCount
// members given its consolidated balance matrix.
//
// The check is strict in both directions: a member who owes money may not
// leave, and neither may a member who is owed money, since leaving would
// make that credit unrecoverable within the group's bookkeeping. The last
// remaining member cannot leave either.
func CanLeaveGroup(member MemberID, matrix BalanceMatrix, memberCount int) bool {
	if memberCount <= 1 {
		return false
	}
	if matrix.Owes(member) {
		return false
	}
	if matrix.IsOwed(member) {
		return false
	}
	return true
}

// CanDeleteGroup reports whether a group may be deleted: only when no
// outstanding balance exists anywhere, across all of its events.
func CanDeleteGroup(matrix BalanceMatrix) bool {
	return matrix.IsEmpty()
}

// CanRemoveGuest reports whether a guest may be removed from a group with
// participantCount members and guests in total.
//
// This is stricter than CanLeaveGroup: any appearance of the guest in the
// raw history — an expense's payers or debtors, a payment's parties, an
// event's debt view — blocks removal even when the balances net to zero,
// because history must remain attributable. Removal is also blocked when it
// would leave fewer than two participants behind.
func CanRemoveGuest(guest MemberID, participantCount int, matrix BalanceMatrix, history Participation) bool {
	if participantCount-1 < 2 {
		return false
	}
	if matrix.Involves(guest) {
		return false
	}
	if history.Involves(guest) {
		return false
	}
	return true
}
