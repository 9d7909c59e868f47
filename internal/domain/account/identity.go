package account

import "errors"

var ErrForbidden = errors.New("identity is not allowed to perform this operation")

// Identity is the already-authenticated caller supplied by the auth layer.
type Identity struct {
	AccountID string
	IsAdmin   bool
	IsActive  bool
}

// CanActFor reports whether the identity may operate on accountID's cart or
// orders: admins may act for anyone, other accounts only for themselves.
func (i Identity) CanActFor(accountID string) bool {
	if !i.IsActive || i.AccountID == "" {
		return false
	}
	return i.IsAdmin || i.AccountID == accountID
}
