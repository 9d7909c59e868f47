package catalog

import "math"

// MaxQuantity bounds every stock counter and line quantity so that it fits
// the INTEGER columns it is stored in.
const MaxQuantity = math.MaxInt32

// Quantity is a validated, non-negative count of product units.
type Quantity int

func NewQuantity(n int) (Quantity, error) {
	if n < 0 || n > MaxQuantity {
		return 0, ErrInvalidQuantity
	}
	return Quantity(n), nil
}

// NewPositiveQuantity is used where a zero count has no meaning, such as
// cart and order lines.
func NewPositiveQuantity(n int) (Quantity, error) {
	if n <= 0 || n > MaxQuantity {
		return 0, ErrInvalidQuantity
	}
	return Quantity(n), nil
}

// Valid reports whether q is within [0, MaxQuantity]. A Quantity built by
// conversion rather than through a constructor may not be.
func (q Quantity) Valid() bool {
	return q >= 0 && q <= MaxQuantity
}

func (q Quantity) Int() int {
	return int(q)
}

// Fits reports whether adding q to n stays within MaxQuantity.
func (q Quantity) Fits(n int) bool {
	return q.Valid() && n >= 0 && n <= MaxQuantity-q.Int()
}
