package order

import (
	"strings"
	"unicode"
)

// Status is the lifecycle label of an order.
type Status string

const (
	StatusSubmitted Status = "PASSEE"
	StatusConfirmed Status = "VALIDEE"
	StatusShipped   Status = "ENVOYEE"
	StatusCancelled Status = "SUPPRIMEE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusConfirmed, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

type ShippingMethod string

const (
	ShippingPostesCanada ShippingMethod = "postescanada"
	ShippingPurolator    ShippingMethod = "purolator"
	ShippingFedex        ShippingMethod = "fedex"
)

func ShippingMethods() []ShippingMethod {
	return []ShippingMethod{ShippingPostesCanada, ShippingPurolator, ShippingFedex}
}

func ParseShippingMethod(raw string) (ShippingMethod, error) {
	for _, m := range ShippingMethods() {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", ErrInvalidShippingMethod
}

type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
}

func (a Address) Validate() error {
	if a.Name == "" || a.Street == "" || a.City == "" || a.Province == "" || a.PostalCode == "" {
		return ErrIncompleteAddress
	}
	return nil
}

type Shipping struct {
	Method  ShippingMethod `json:"method"`
	Address Address        `json:"address"`
}

// Payment keeps only what is needed to display the order later; the full
// card number never leaves NewPayment.
type Payment struct {
	CardholderName string `json:"cardholder_name"`
	CardLast4      string `json:"card_last4"`
	Expiry         string `json:"expiry"`
}

func NewPayment(cardholder, cardNumber, expiry string) (Payment, error) {
	if cardholder == "" || cardNumber == "" || expiry == "" {
		return Payment{}, ErrIncompletePayment
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) < 4 {
		return Payment{}, ErrIncompletePayment
	}
	return Payment{
		CardholderName: cardholder,
		CardLast4:      digits[len(digits)-4:],
		Expiry:         expiry,
	}, nil
}
