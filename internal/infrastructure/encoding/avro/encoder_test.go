package avro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment/internal/domain/event"
)

func TestEncoder_OrderEvent(t *testing.T) {
	enc, err := NewEncoder(OrderEventSchema)
	require.NoError(t, err)

	ev := event.OrderEvent{
		EventID:    "e-1",
		Type:       event.OrderConfirmed,
		OrderID:    "o-1",
		AccountID:  "josbleau",
		FromStatus: "PASSEE",
		ToStatus:   "VALIDEE",
		Total:      "110.50",
		Movements:  []event.StockMovement{{ProductID: "PA", Delta: -20}},
		OccurredAt: time.Date(2024, 5, 11, 14, 15, 30, 0, time.UTC),
	}

	bin, err := enc.EncodeNative(ToOrderEventNative(ev))
	require.NoError(t, err)

	decoded, rest, err := enc.codec.NativeFromBinary(bin)
	require.NoError(t, err)
	assert.Empty(t, rest)
	record := decoded.(map[string]interface{})
	assert.Equal(t, "o-1", record["order_id"])
	assert.Equal(t, map[string]interface{}{"string": "PASSEE"}, record["from_status"])
	assert.Nil(t, record["request_id"])
	movements := record["movements"].([]interface{})
	require.Len(t, movements, 1)
	assert.Equal(t, int64(-20), movements[0].(map[string]interface{})["delta"])
}

func TestEncoder_ReplenishmentRequest(t *testing.T) {
	enc := MustEncoder(ReplenishmentRequestSchema)

	bin, err := enc.EncodeNative(ToReplenishmentNative(event.ReplenishmentRequest{
		RequestID:    "r-1",
		ProductID:    "P5",
		ProductName:  "Produit E",
		Stock:        0,
		MinimumStock: 10,
		Shortfall:    10,
		RequestedAt:  time.Now().UTC(),
	}))

	require.NoError(t, err)
	assert.NotEmpty(t, bin)
}

func TestNewEncoder_InvalidSchema(t *testing.T) {
	_, err := NewEncoder(`{"type": "record"}`)

	assert.Error(t, err)
}
