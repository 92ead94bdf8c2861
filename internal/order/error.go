package order

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid order input")
	ErrOrderCreationFailed     = errors.New("could not create order")
	ErrOrderNotFound           = errors.New("order not found")
	ErrForbidden               = errors.New("cannot access others' orders")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
