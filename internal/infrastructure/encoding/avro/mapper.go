package avro

import (
	"fulfillment/internal/domain/event"
)

// goavro expects union values wrapped as map[string]interface{}{"type": value}.
func optionalString(v string) interface{} {
	if v == "" {
		return nil
	}
	return map[string]interface{}{"string": v}
}

func ToOrderEventNative(ev event.OrderEvent) map[string]interface{} {
	movements := make([]interface{}, 0, len(ev.Movements))
	for _, m := range ev.Movements {
		movements = append(movements, map[string]interface{}{
			"product_id": m.ProductID,
			"delta":      int64(m.Delta),
		})
	}

	return map[string]interface{}{
		"event_id":    ev.EventID,
		"type":        string(ev.Type),
		"order_id":    ev.OrderID,
		"account_id":  ev.AccountID,
		"from_status": optionalString(ev.FromStatus),
		"to_status":   ev.ToStatus,
		"total":       ev.Total,
		"movements":   movements,
		"request_id":  optionalString(ev.RequestID),
		"occurred_at": ev.OccurredAt,
	}
}

func ToReplenishmentNative(r event.ReplenishmentRequest) map[string]interface{} {
	return map[string]interface{}{
		"request_id":    r.RequestID,
		"product_id":    r.ProductID,
		"product_name":  r.ProductName,
		"stock":         int64(r.Stock),
		"minimum_stock": int64(r.MinimumStock),
		"shortfall":     int64(r.Shortfall),
		"requested_at":  r.RequestedAt,
	}
}
