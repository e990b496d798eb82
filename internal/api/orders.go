package api

import (
	"context"
	"fmt"

	"github.com/quickplate/ordering-client/internal/domain/order"
)

// PlaceOrderRequest carries delivery metadata only. Line items and pricing
// are derived server-side from the current cart; the client cannot tamper
// with prices because it never sends them.
type PlaceOrderRequest struct {
	DeliveryName    string `json:"delivery_name"`
	DeliveryAddress string `json:"delivery_address"`
	DeliveryPhone   string `json:"delivery_phone"`
}

// PlaceOrderResponse is the checkout result.
type PlaceOrderResponse struct {
	Message string `json:"message"`
	Order   struct {
		ID          int64   `json:"id"`
		Status      string  `json:"status"`
		TotalAmount float64 `json:"total_amount"`
	} `json:"order"`
}

// PlaceOrder submits the current cart as an order. On the backend this
// clears the cart as a side effect; callers must invalidate both the order
// list and the cart cache on success.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error) {
	var resp PlaceOrderResponse
	if err := c.post(ctx, "/orders", req, &resp); err != nil {
		return PlaceOrderResponse{}, err
	}
	return resp, nil
}

// Orders fetches all orders for the current user.
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.get(ctx, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Order fetches a single order by id. Unknown ids surface as ErrNotFound.
func (c *Client) Order(ctx context.Context, id int64) (order.Order, error) {
	var ord order.Order
	if err := c.get(ctx, fmt.Sprintf("/orders/%d", id), nil, &ord); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}
