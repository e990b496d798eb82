package api

import (
	"context"
	"fmt"

	"github.com/quickplate/ordering-client/internal/domain/cart"
)

// AddToCartRequest adds a menu item to the cart.
type AddToCartRequest struct {
	MenuItemID int64 `json:"menuItemId"`
	Quantity   int   `json:"quantity"`
}

// UpdateCartItemRequest changes the quantity of an existing cart line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartMutationResponse is the result of an add or update. The reservation
// block reports server-side stock reserved for this cart; the client renders
// it and never recomputes it.
type CartMutationResponse struct {
	Message     string           `json:"message"`
	Reservation cart.Reservation `json:"reservation"`
}

// MessageResponse is the result of a remove or clear.
type MessageResponse struct {
	Message string `json:"message"`
}

// Cart fetches the current user's cart. Callers must hold an authenticated
// session; the state layer enforces that before the request is issued.
func (c *Client) Cart(ctx context.Context) (cart.Cart, error) {
	var resp struct {
		Cart cart.Cart `json:"cart"`
	}
	if err := c.get(ctx, "/cart", nil, &resp); err != nil {
		return cart.Cart{}, err
	}
	return resp.Cart, nil
}

// AddCartItem adds quantity of a menu item to the cart.
func (c *Client) AddCartItem(ctx context.Context, req AddToCartRequest) (CartMutationResponse, error) {
	var resp CartMutationResponse
	if err := c.post(ctx, "/cart/items", req, &resp); err != nil {
		return CartMutationResponse{}, err
	}
	return resp, nil
}

// UpdateCartItem sets the quantity of a cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, req UpdateCartItemRequest) (CartMutationResponse, error) {
	var resp CartMutationResponse
	if err := c.put(ctx, fmt.Sprintf("/cart/items/%d", itemID), req, &resp); err != nil {
		return CartMutationResponse{}, err
	}
	return resp, nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (MessageResponse, error) {
	var resp MessageResponse
	if err := c.delete(ctx, fmt.Sprintf("/cart/items/%d", itemID), &resp); err != nil {
		return MessageResponse{}, err
	}
	return resp, nil
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (MessageResponse, error) {
	var resp MessageResponse
	if err := c.delete(ctx, "/cart/clear", &resp); err != nil {
		return MessageResponse{}, err
	}
	return resp, nil
}
