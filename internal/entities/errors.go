package entities

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrIDExhausted       = errors.New("order id space exhausted")
	ErrConflict          = errors.New("conflicting concurrent write")
)
