package avro

// OrderEventSchema describes events published on the order events topic.
// Money is carried as a decimal string to avoid float rounding.
const OrderEventSchema = `{
	"type": "record",
	"name": "OrderEvent",
	"namespace": "fulfillment.order",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "account_id", "type": "string"},
		{"name": "from_status", "type": ["null", "string"], "default": null},
		{"name": "to_status", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "movements", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "StockMovement",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "delta", "type": "long"}
				]
			}
		}},
		{"name": "request_id", "type": ["null", "string"], "default": null},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const ReplenishmentRequestSchema = `{
	"type": "record",
	"name": "ReplenishmentRequest",
	"namespace": "fulfillment.catalog",
	"fields": [
		{"name": "request_id", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "product_name", "type": "string"},
		{"name": "stock", "type": "long"},
		{"name": "minimum_stock", "type": "long"},
		{"name": "shortfall", "type": "long"},
		{"name": "requested_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`
