package carts

// CartLine is one menu item inside a cart. UnitPrice and LineTotal always
// reflect the live menu price at the time the cart was read or mutated.
type CartLine struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
}

// Cart is the single active cart of a user.
type Cart struct {
	UserID     string     `json:"user_id"`
	Items      []CartLine `json:"items"`
	TotalPrice float64    `json:"total_price"`
}
