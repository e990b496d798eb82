// Package state orchestrates client-side synchronization with the
// server-authoritative cart and order records: every mutation invalidates
// the local cache so the next read refetches, and the view never renders a
// client-computed guess of server-derived fields.
package state

import (
	"context"
	"time"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/internal/cache"
	"github.com/quickplate/ordering-client/internal/domain/cart"
	"github.com/quickplate/ordering-client/internal/session"
	"github.com/quickplate/ordering-client/pkg/logger"
)

// cartFreshness keeps rapid UI interactions from refetching between reads.
const cartFreshness = 30 * time.Second

const cartKey = "cart"

// Authenticated reports whether a session is present. Reads gated on it are
// never issued while logged out.
type Authenticated func() bool

// Cart synchronizes the local cart cache with the server.
type Cart struct {
	api    *api.Client
	authed Authenticated
	cache  *cache.Cache[cart.Cart]
	log    *logger.Logger
}

// NewCart creates the cart state.
func NewCart(client *api.Client, authed Authenticated, log *logger.Logger) *Cart {
	return &Cart{
		api:    client,
		authed: authed,
		cache:  cache.New[cart.Cart]("cart", cartFreshness),
		log:    log.WithField("state", "cart"),
	}
}

// Get returns the cart, served from cache within the freshness window.
// Without an authenticated session no network call is made and
// session.ErrNotLoggedIn is returned.
func (c *Cart) Get(ctx context.Context) (cart.Cart, error) {
	if !c.authed() {
		return cart.Cart{}, session.ErrNotLoggedIn
	}
	return c.cache.Get(ctx, cartKey, func(ctx context.Context) (cart.Cart, error) {
		return c.api.Cart(ctx)
	})
}

// Peek returns the last fetched cart without touching the network.
func (c *Cart) Peek() (cart.Cart, bool) {
	return c.cache.Peek(cartKey)
}

// Add adds quantity of a menu item. On success the cached cart is
// invalidated; on failure it is left untouched.
func (c *Cart) Add(ctx context.Context, menuItemID int64, quantity int) (api.CartMutationResponse, error) {
	resp, err := c.api.AddCartItem(ctx, api.AddToCartRequest{MenuItemID: menuItemID, Quantity: quantity})
	if err != nil {
		return api.CartMutationResponse{}, err
	}
	c.cache.Invalidate(cartKey)
	return resp, nil
}

// UpdateQuantity sets the quantity of a cart line.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (api.CartMutationResponse, error) {
	resp, err := c.api.UpdateCartItem(ctx, itemID, api.UpdateCartItemRequest{Quantity: quantity})
	if err != nil {
		return api.CartMutationResponse{}, err
	}
	c.cache.Invalidate(cartKey)
	return resp, nil
}

// Remove deletes a cart line.
func (c *Cart) Remove(ctx context.Context, itemID int64) (api.MessageResponse, error) {
	resp, err := c.api.RemoveCartItem(ctx, itemID)
	if err != nil {
		return api.MessageResponse{}, err
	}
	c.cache.Invalidate(cartKey)
	return resp, nil
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) (api.MessageResponse, error) {
	resp, err := c.api.ClearCart(ctx)
	if err != nil {
		return api.MessageResponse{}, err
	}
	c.cache.Invalidate(cartKey)
	return resp, nil
}

// Invalidate marks the cached cart stale. Order placement uses this: the
// backend clears the cart as a side effect of creating the order.
func (c *Cart) Invalidate() {
	c.cache.Invalidate(cartKey)
}

// Reset drops all cached cart data. Called on logout.
func (c *Cart) Reset() {
	c.cache.Clear()
}
