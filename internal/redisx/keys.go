package redisx

import "time"

const (
	// Session cart hash: cart:{session_id} -> field product_id, value qty
	KeyCart = "cart:%s"

	// Cache terminal order status for fast receipt reads: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 7 * 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
