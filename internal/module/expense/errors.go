package expense

import "errors"

// Expense domain errors
var (
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrInvalidDescription = errors.New("expense description must not be empty")
	ErrExceedsOutstanding = errors.New("payment exceeds the expense's outstanding amount")
	ErrAmountBelowPaid    = errors.New("expense amount cannot drop below what was already paid")
	ErrExpenseHasPayments = errors.New("expense has earmarked payments recorded against it")
)
