package cart

import "errors"

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrCartConsumed = errors.New("cart was already converted into an order")
	ErrMissingField = errors.New("required field is missing")
)
