package payment

import "errors"

// Payment domain errors
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrExpenseMismatch = errors.New("earmarked expense belongs to a different event")
)
