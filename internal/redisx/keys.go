package redisx

import "time"

const (
	// Ranked result of the last optimization pass: optimized_orders -> JSON list
	KeyOptimizedOrders = "optimized_orders"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
