package state

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/internal/cache"
	"github.com/quickplate/ordering-client/internal/domain/order"
	"github.com/quickplate/ordering-client/internal/push"
	"github.com/quickplate/ordering-client/internal/session"
	"github.com/quickplate/ordering-client/pkg/logger"
)

const (
	// ordersFreshness is the order-list freshness window.
	ordersFreshness = time.Minute
	// orderFreshness bounds staleness of a single tracked order; it matches
	// the poll interval so every poll tick refetches.
	orderFreshness = 5 * time.Second
	// PollInterval is the fixed order-tracking poll cadence.
	PollInterval = 5 * time.Second

	ordersKey = "orders"
)

// Orders synchronizes the order list and individual orders, combining the
// fixed-interval poll with push-triggered refreshes. Both triggers converge
// on the same invalidate-then-refetch action.
type Orders struct {
	api    *api.Client
	authed Authenticated
	list   *cache.Cache[[]order.Order]
	byID   *cache.Cache[order.Order]
	log    *logger.Logger

	mu sync.Mutex
	// highest holds the furthest status stage observed per order id, so the
	// status handed to views never decreases even if a fetch races a
	// transition or the backend answers from a stale replica.
	highest map[int64]order.Status
	// watchers maps order id to the refresh channels of active watches.
	watchers map[int64][]chan struct{}
}

// NewOrders creates the order state.
func NewOrders(client *api.Client, authed Authenticated, log *logger.Logger) *Orders {
	return &Orders{
		api:      client,
		authed:   authed,
		list:     cache.New[[]order.Order]("orders", ordersFreshness),
		byID:     cache.New[order.Order]("order", orderFreshness),
		log:      log.WithField("state", "orders"),
		highest:  make(map[int64]order.Status),
		watchers: make(map[int64][]chan struct{}),
	}
}

// Place submits delivery details for checkout. On success both the order
// list and any cart cache are invalidated; invalidateCart is the hook the
// app layer uses to reach the cart state (the backend clears the cart as a
// side effect of placement).
func (o *Orders) Place(ctx context.Context, req api.PlaceOrderRequest, invalidateCart func()) (api.PlaceOrderResponse, error) {
	resp, err := o.api.PlaceOrder(ctx, req)
	if err != nil {
		return api.PlaceOrderResponse{}, err
	}
	o.list.Invalidate(ordersKey)
	if invalidateCart != nil {
		invalidateCart()
	}
	return resp, nil
}

// List returns the user's orders, served from cache within the freshness
// window.
func (o *Orders) List(ctx context.Context) ([]order.Order, error) {
	if !o.authed() {
		return nil, session.ErrNotLoggedIn
	}
	orders, err := o.list.Get(ctx, ordersKey, func(ctx context.Context) ([]order.Order, error) {
		return o.api.Orders(ctx)
	})
	if err != nil {
		return nil, err
	}
	clamped := make([]order.Order, len(orders))
	for i, ord := range orders {
		clamped[i] = o.clamp(ord)
	}
	return clamped, nil
}

// Get returns one order. The status handed back never regresses below the
// furthest stage previously observed for that id.
func (o *Orders) Get(ctx context.Context, id int64) (order.Order, error) {
	if !o.authed() {
		return order.Order{}, session.ErrNotLoggedIn
	}
	ord, err := o.byID.Get(ctx, orderKey(id), func(ctx context.Context) (order.Order, error) {
		return o.api.Order(ctx, id)
	})
	if err != nil {
		return order.Order{}, err
	}
	return o.clamp(ord), nil
}

// HandlePush reacts to a push notification: the named order and the order
// list are invalidated, and active watches of that order are nudged to
// refetch. The push payload itself is never treated as the status record;
// only the subsequent fetch is. Orders other than the named one are left
// alone.
func (o *Orders) HandlePush(update push.StatusUpdate) {
	id := int64(update.OrderID)
	if id == 0 {
		return
	}

	o.log.WithField("order_id", id).
		WithField("pushed_status", update.Status).
		Debug("push notification received")

	o.byID.Invalidate(orderKey(id))
	o.list.Invalidate(ordersKey)

	o.mu.Lock()
	refreshes := append([]chan struct{}(nil), o.watchers[id]...)
	o.mu.Unlock()

	for _, ch := range refreshes {
		select {
		case ch <- struct{}{}:
		default: // a refresh is already pending; one refetch covers both
		}
	}
}

// Watch polls the order every PollInterval and additionally refetches when a
// push notification names the same id. onUpdate receives every successful
// fetch result; onError receives fetch failures (non-fatally, polling
// continues). The returned stop func tears the watch down and is safe to
// call more than once; after it returns no callback is invoked again.
func (o *Orders) Watch(ctx context.Context, id int64, onUpdate func(order.Order), onError func(error)) (stop func()) {
	refresh := make(chan struct{}, 1)
	done := make(chan struct{})

	o.mu.Lock()
	o.watchers[id] = append(o.watchers[id], refresh)
	o.mu.Unlock()

	// The limiter coalesces the poll tick and a push notification landing
	// together into a single refetch.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	fetch := func() {
		if !limiter.Allow() {
			return
		}
		o.byID.Invalidate(orderKey(id))
		ord, err := o.Get(ctx, id)
		select {
		case <-done:
			return // stopped while the fetch was in flight
		default:
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onUpdate(ord)
	}

	go func() {
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()

		// Prime immediately so the view is not blank for a full interval.
		fetch()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				fetch()
			case <-refresh:
				fetch()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			o.mu.Lock()
			chans := o.watchers[id]
			for i, ch := range chans {
				if ch == refresh {
					o.watchers[id] = append(chans[:i], chans[i+1:]...)
					break
				}
			}
			if len(o.watchers[id]) == 0 {
				delete(o.watchers, id)
			}
			o.mu.Unlock()
		})
	}
}

// Reset drops all cached order data and status history. Called on logout.
func (o *Orders) Reset() {
	o.list.Clear()
	o.byID.Clear()
	o.mu.Lock()
	o.highest = make(map[int64]order.Status)
	o.mu.Unlock()
}

// clamp pins the order's status to the furthest stage seen for its id.
func (o *Orders) clamp(ord order.Order) order.Order {
	stage := ord.StatusStage()

	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.highest[ord.ID]
	if stage.Rank() > prev.Rank() {
		o.highest[ord.ID] = stage
		return ord
	}
	if stage.Rank() < prev.Rank() && prev != order.StatusUnknown {
		o.log.WithField("order_id", ord.ID).
			WithField("fetched", ord.Status).
			WithField("displayed", prev.String()).
			Warn("ignoring status regression")
		ord.Status = prev.String()
	}
	return ord
}

func orderKey(id int64) string {
	return "order:" + strconv.FormatInt(id, 10)
}
