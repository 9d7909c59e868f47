package catalog

import "errors"

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrInvalidQuantity = errors.New("quantity must be an integer between 0 and 2147483647")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrMissingField    = errors.New("required field is missing")
	ErrProductExists   = errors.New("product already exists")
	ErrProductInUse    = errors.New("product is referenced by an open order")
)
