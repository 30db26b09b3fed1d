package repairs

import (
	"encoding/json"
	"time"
)

const (
	EventOrdersOptimized    = "OrdersOptimized"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPartStockChanged   = "PartStockChanged"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrdersOptimizedPayload struct {
	PassID              string  `json:"pass_id"`
	PendingOrders       int     `json:"pending_orders"`
	AcceptedOrders      int     `json:"accepted_orders"`
	TotalExpectedProfit float64 `json:"total_expected_profit"`
	TopRepairOrderID    string  `json:"top_repair_order_id,omitempty"`
}

type OrderStatusChangedPayload struct {
	RepairOrderID string `json:"repair_order_id"`
	From          Status `json:"from"`
	To            Status `json:"to"`
}

type PartStockChangedPayload struct {
	PartID        string `json:"part_id"`
	Delta         int    `json:"delta"`
	StockQuantity int    `json:"stock_quantity"`
}
