// Package cart defines the server-authoritative cart records. The client
// holds only cached copies; every field, including totals and availability
// warnings, is computed server-side.
package cart

import "github.com/quickplate/ordering-client/internal/domain/menu"

// Item is one line of a cart, joined with its menu item.
type Item struct {
	ID                  int64     `json:"id"`
	CartID              int64     `json:"cartId"`
	MenuItemID          int64     `json:"menuItemId"`
	Quantity            int       `json:"quantity"`
	ItemTotal           string    `json:"itemTotal"`
	AvailableNow        *int      `json:"available_now,omitempty"`
	IsAvailableNow      *bool     `json:"is_available_now,omitempty"`
	AvailabilityWarning *string   `json:"availability_warning,omitempty"`
	CreatedAt           string    `json:"createdAt"`
	UpdatedAt           string    `json:"updatedAt"`
	MenuItem            menu.Item `json:"menuItem"`
}

// Cart is one user's cart as the server returns it.
type Cart struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Items     []Item `json:"items"`
	ItemCount int    `json:"itemCount"`
	Subtotal  string `json:"subtotal"`
	Total     string `json:"total"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Reservation reports stock reserved for the cart by a mutation.
type Reservation struct {
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}
