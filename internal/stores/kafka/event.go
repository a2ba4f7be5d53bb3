package kafka

import "time"

const (
	TopicOrderPlaced        = `food-ordering.order-placed`
	TopicOrderStatusChanged = `food-ordering.order-status-changed`
)

// OrderPlacedEvent is emitted once per order after checkout commits.
type OrderPlacedEvent struct {
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	RestaurantID string    `json:"restaurant_id"`
	TotalAmount  float64   `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderStatusChangedEvent is emitted whenever a restaurant moves an order
// through its workflow.
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}
