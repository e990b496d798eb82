// Package order defines the server-authoritative order records and the
// order status enumeration. Orders are immutable on the client; only the
// server transitions status, and only forward.
package order

import "strings"

// Status is the lifecycle stage of an order.
type Status int

const (
	StatusUnknown Status = iota
	StatusReceived
	StatusPreparing
	StatusOutForDelivery
	StatusDelivered
)

var statusNames = map[Status]string{
	StatusReceived:       "Order Received",
	StatusPreparing:      "Preparing",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
}

// String returns the display name the backend uses for the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Rank returns the position of the status in the forward-only sequence.
// Larger rank means later stage; StatusUnknown ranks below everything.
func (s Status) Rank() int { return int(s) }

// ParseStatus maps a backend status string onto the enumeration. Matching is
// case-insensitive and tolerant of the "Order Received"/"Received" split seen
// across backend versions. Unrecognized strings map to StatusUnknown.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "order received", "received", "pending":
		return StatusReceived
	case "preparing", "in preparation":
		return StatusPreparing
	case "out for delivery", "out_for_delivery", "delivering":
		return StatusOutForDelivery
	case "delivered", "completed":
		return StatusDelivered
	default:
		return StatusUnknown
	}
}

// Item is one snapshotted order line with its price at order time.
type Item struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"orderId"`
	MenuItemID   int64   `json:"menuItemId"`
	Quantity     int     `json:"quantity"`
	PriceAtOrder string  `json:"price_at_order"`
	MenuItemName *string `json:"menuItemName,omitempty"`
}

// Order is one order record as the server returns it.
type Order struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	TotalAmount     float64 `json:"total_amount"`
	Status          string  `json:"status"`
	DeliveryName    string  `json:"delivery_name"`
	DeliveryAddress string  `json:"delivery_address"`
	DeliveryPhone   string  `json:"delivery_phone"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
	Items           []Item  `json:"items"`
}

// StatusStage returns the parsed status of the order.
func (o Order) StatusStage() Status { return ParseStatus(o.Status) }
