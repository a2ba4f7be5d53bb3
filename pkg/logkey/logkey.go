// Package logkey holds the attribute names used across structured logs so
// dashboards can rely on stable keys.
package logkey

const (
	TraceID = "trace_id"
	ERROR   = "error"

	UserID     = "user_id"
	OrderID    = "order_id"
	MenuItemID = "menu_item_id"
	CartID     = "cart_id"
)
