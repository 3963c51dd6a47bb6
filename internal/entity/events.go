package entity

import "time"

// Topics events are published to.
const (
	TopicOrderPlaced        = "orders.placed"
	TopicOrderStatusChanged = "orders.status_changed"
)

// Event represents a domain event.
type Event interface {
	EventType() string
}

// OrderPlaced is emitted once an order has been committed, either by checkout
// or by a direct order creation.
type OrderPlaced struct {
	OrderID     int64       `json:"order_id"`
	UserID      int64       `json:"user_id"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	PlacedAt    time.Time   `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// OrderStatusChanged is emitted when an order moves between statuses.
type OrderStatusChanged struct {
	OrderID       int64       `json:"order_id"`
	From          OrderStatus `json:"from"`
	To            OrderStatus `json:"to"`
	StockRestored bool        `json:"stock_restored"`
	ChangedAt     time.Time   `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }
