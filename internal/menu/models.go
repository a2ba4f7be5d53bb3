package menu

import "time"

// MenuItem is a sellable product owned by a restaurant account.
type MenuItem struct {
	ID                 string    `json:"id"`
	RestaurantID       string    `json:"restaurant_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Price              float64   `json:"price"`
	AvailableQty       int       `json:"available_qty"`
	DiscountPercentage float64   `json:"discount_percentage"`
	IsVeg              bool      `json:"is_veg"`
	Category           string    `json:"category"`
	Rating             float64   `json:"rating"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewMenuItem is the payload for creating an item. Price and AvailableQty are
// pointers so that an explicit zero passes `required` while a missing field
// does not.
type NewMenuItem struct {
	Name               string   `json:"name" validate:"required"`
	Description        string   `json:"description"`
	Price              *float64 `json:"price" validate:"required,gte=0"`
	AvailableQty       *int     `json:"available_qty" validate:"required,gte=0"`
	DiscountPercentage float64  `json:"discount_percentage" validate:"gte=0,lte=100"`
	IsVeg              bool     `json:"is_veg"`
	Category           string   `json:"category" validate:"required"`
}

// UpdateMenuItem carries the mutable fields of an item. Nil fields are left
// unchanged.
type UpdateMenuItem struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	Price              *float64 `json:"price" validate:"omitempty,gte=0"`
	AvailableQty       *int     `json:"available_qty" validate:"omitempty,gte=0"`
	DiscountPercentage *float64 `json:"discount_percentage" validate:"omitempty,gte=0,lte=100"`
	IsVeg              *bool    `json:"is_veg"`
	Category           *string  `json:"category"`
}
