package orders

import "time"

// Charge constants applied at checkout.
const (
	TaxRate     = 0.05
	DeliveryFee = 50.0
)

// OrderLine is an immutable snapshot of one cart line at checkout time.
type OrderLine struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	LineTotal  float64 `json:"line_total"`
}

// Order is the durable result of materializing a cart.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	RestaurantID    string      `json:"restaurant_id"`
	Items           []OrderLine `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	DeliveryFee     float64     `json:"delivery_fee"`
	TotalAmount     float64     `json:"total_amount"`
	DeliveryAddress string      `json:"delivery_address"`
	Status          Status      `json:"status"`
	PaymentStatus   string      `json:"payment_status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Charges is the fixed-formula breakdown of an order's cost.
type Charges struct {
	Subtotal    float64
	Tax         float64
	DeliveryFee float64
	TotalAmount float64
}

// ComputeCharges applies the tax and delivery fee formula to a subtotal.
func ComputeCharges(subtotal float64) Charges {
	tax := subtotal * TaxRate
	return Charges{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: DeliveryFee,
		TotalAmount: subtotal + tax + DeliveryFee,
	}
}
