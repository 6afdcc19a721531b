package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderFinalized = "OrderFinalized"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string  `json:"order_id"`
	SessionID   string  `json:"session_id"`
	PickupPoint string  `json:"pickup_point"`
	Items       []Item  `json:"items"`
	Total       float64 `json:"total"`
	AmountMinor int64   `json:"amount_minor"`
}

type OrderFinalizedPayload struct {
	OrderID     string          `json:"order_id"`
	FinalStatus Status          `json:"final_status"`
	PickupPoint string          `json:"pickup_point,omitempty"`
	Shortages   []StockShortage `json:"shortages,omitempty"`
}
