package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuantity(t *testing.T) {
	q, err := NewQuantity(0)

	assert.NoError(t, err)
	assert.Equal(t, 0, q.Int())
}

func TestNewQuantity_Negative(t *testing.T) {
	q, err := NewQuantity(-10)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 0, q.Int())
}

func TestNewPositiveQuantity_Zero(t *testing.T) {
	_, err := NewPositiveQuantity(0)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestNewProduct_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		title   string
		price   decimal.Decimal
		stock   int
		minimum int
		wantErr error
	}{
		{name: "valid", id: "P1", title: "Produit A", price: decimal.NewFromInt(10), stock: 100, minimum: 10},
		{name: "missing id", title: "Produit A", price: decimal.NewFromInt(10), wantErr: ErrMissingField},
		{name: "negative price", id: "P1", title: "Produit A", price: decimal.NewFromInt(-1), wantErr: ErrInvalidPrice},
		{name: "negative stock", id: "P1", title: "Produit A", price: decimal.NewFromInt(1), stock: -1, wantErr: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(tt.id, tt.title, tt.price, tt.stock, tt.minimum)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stock, p.Stock)
		})
	}
}

func TestCatalog_IDsSorted(t *testing.T) {
	c := New(
		&Product{ID: "P3"},
		&Product{ID: "P1"},
		&Product{ID: "P2"},
	)

	assert.Equal(t, []string{"P1", "P2", "P3"}, c.IDs())

	_, ok := c.Lookup("P9")
	assert.False(t, ok)
}

func TestProduct_CloneIsIndependent(t *testing.T) {
	p := &Product{ID: "P1", Stock: 5}
	cp := p.Clone()
	cp.Stock = 1

	assert.Equal(t, 5, p.Stock)
}

func TestNewQuantity_AboveMaximum(t *testing.T) {
	_, err := NewQuantity(MaxQuantity + 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewPositiveQuantity(MaxQuantity + 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	q, err := NewPositiveQuantity(MaxQuantity)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, q.Int())
}

func TestQuantity_Fits(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		n    int
		want bool
	}{
		{name: "small sum", q: 10, n: 20, want: true},
		{name: "exactly the maximum", q: 1, n: MaxQuantity - 1, want: true},
		{name: "one past the maximum", q: 2, n: MaxQuantity - 1, want: false},
		{name: "negative quantity", q: Quantity(-1), n: 5, want: false},
		{name: "negative base", q: 1, n: -5, want: false},
		{name: "unvalidated conversion", q: Quantity(MaxQuantity + 1), n: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Fits(tt.n))
		})
	}
}
