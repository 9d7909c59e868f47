package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_StartsSubmitted(t *testing.T) {
	o, err := NewOrder("o-1", "josbleau", []LineItem{
		{ProductID: "PA", Quantity: 2, SalePrice: decimal.RequireFromString("10.50")},
		{ProductID: "PB", Quantity: 1, SalePrice: decimal.NewFromInt(4)},
	}, Shipping{Method: ShippingFedex}, Payment{})

	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, o.Status)
	assert.False(t, o.PlacedAt.IsZero())
	assert.Equal(t, "25", o.Total().String())
	assert.Equal(t, []string{"PA", "PB"}, o.ProductIDs())
}

func TestNewOrder_MissingField(t *testing.T) {
	o, err := NewOrder("", "josbleau", nil, Shipping{}, Payment{})

	assert.ErrorIs(t, err, ErrMissingField)
	assert.Nil(t, o)
}

func TestNewPayment_KeepsLastFourDigits(t *testing.T) {
	p, err := NewPayment("Jos Bleau", "4555 5555 5555 1234", "2025/02")

	require.NoError(t, err)
	assert.Equal(t, "1234", p.CardLast4)
}

func TestNewPayment_Incomplete(t *testing.T) {
	_, err := NewPayment("Jos Bleau", "", "2025/02")

	assert.ErrorIs(t, err, ErrIncompletePayment)
}

func TestParseShippingMethod(t *testing.T) {
	m, err := ParseShippingMethod("purolator")
	assert.NoError(t, err)
	assert.Equal(t, ShippingPurolator, m)

	_, err = ParseShippingMethod("ups")
	assert.ErrorIs(t, err, ErrInvalidShippingMethod)
}

func TestClone_CopiesLines(t *testing.T) {
	o := &Order{ID: "o-1", Lines: []LineItem{{ProductID: "PA", Quantity: 1}}}
	cp := o.Clone()
	cp.Lines[0].Quantity = 9

	assert.Equal(t, 1, o.Lines[0].Quantity)
}
