package payment

import "errors"

var (
	// ErrDuplicatePayment means the payment intent was already recorded.
	ErrDuplicatePayment = errors.New("payment intent already recorded")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrSignatureInvalid = errors.New("invalid webhook signature")
)

const pgUniqueViolation = "23505"
