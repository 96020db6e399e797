package redisx

import "time"

const (
	// Idempotency shortcut for checkout: idem:checkout:{user_id}:{key} -> order_id
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Cache of a serialized order: order:{order_id}
	KeyOrder = "order:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLOrderCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
