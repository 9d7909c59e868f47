package order

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition     = errors.New("invalid order transition")
	ErrMissingField          = errors.New("required field is missing")
	ErrInvalidShippingMethod = errors.New("shipping method must be one of postescanada, purolator, fedex")
	ErrIncompleteAddress     = errors.New("address requires name, street, city, province and postal code")
	ErrIncompletePayment     = errors.New("payment requires cardholder name, card number and expiry")
)

// InvalidTransitionError is returned when an operation is not allowed from
// the order's current status. Nothing is mutated before it is returned.
type InvalidTransitionError struct {
	OrderID string
	Op      string
	Status  Status
}

func (e *InvalidTransitionError) Error() string {
	if e.Status == StatusCancelled && e.Op == OpCancel {
		return fmt.Sprintf("cannot cancel an already-cancelled order %s", e.OrderID)
	}
	return fmt.Sprintf("cannot %s order %s with status %s", e.Op, e.OrderID, e.Status)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
