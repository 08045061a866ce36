package ledger

import "errors"

// Allocation errors
var (
	ErrInvalidAllocation = errors.New("share inputs do not sum to the expense amount")
	ErrNoMembers         = errors.New("at least one member is required")
	ErrUnknownSplitMethod = errors.New("unknown split method")
)

// Expense and payment errors
var (
	ErrInconsistentExpense = errors.New("expense payers or debtors do not sum to its amount")
	ErrSelfPayment         = errors.New("payment from and to must differ")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrUnknownExpense      = errors.New("payment references an unknown expense")
)
