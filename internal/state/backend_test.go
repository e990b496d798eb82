package state

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/pkg/logger"
)

// testBackend is an in-memory ordering backend covering the endpoints the
// state layer touches. It counts requests per endpoint so tests can assert
// when the client refetches and when it serves from cache.
type testBackend struct {
	mu     sync.Mutex
	hits   map[string]int
	lines  map[int64]*backendLine // cart lines by line id
	orders map[int64]*backendOrder
	nextLineID  int64
	nextOrderID int64

	server *httptest.Server
}

type backendLine struct {
	ID         int64
	MenuItemID int64
	Quantity   int
}

type backendOrder struct {
	ID     int64
	Status string
	Total  float64
}

// itemPrice is the fixed price of every test menu item.
const itemPrice = 5.50

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{
		hits:        make(map[string]int),
		lines:       make(map[int64]*backendLine),
		orders:      make(map[int64]*backendOrder),
		nextLineID:  1,
		nextOrderID: 100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/menu", b.getMenu)
	mux.HandleFunc("GET /api/menu/categories", b.getCategories)
	mux.HandleFunc("GET /api/cart", b.getCart)
	mux.HandleFunc("POST /api/cart/items", b.addItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", b.updateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", b.removeItem)
	mux.HandleFunc("DELETE /api/cart/clear", b.clearCart)
	mux.HandleFunc("POST /api/orders", b.placeOrder)
	mux.HandleFunc("GET /api/orders", b.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", b.getOrder)

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBackend) client(t *testing.T) *api.Client {
	t.Helper()
	client, err := api.New(api.Config{
		BaseURL: b.server.URL,
		Token:   func() string { return "test-token" },
		Logger:  logger.NewNop(),
	})
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	return client
}

func (b *testBackend) count(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[endpoint]
}

func (b *testBackend) setOrderStatus(id int64, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ord, ok := b.orders[id]; ok {
		ord.Status = status
	}
}

func (b *testBackend) addOrder(status string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextOrderID
	b.nextOrderID++
	b.orders[id] = &backendOrder{ID: id, Status: status, Total: itemPrice}
	return id
}

func (b *testBackend) record(endpoint string) {
	b.mu.Lock()
	b.hits[endpoint]++
	b.mu.Unlock()
}

func (b *testBackend) getMenu(w http.ResponseWriter, r *http.Request) {
	b.record("GET /menu")

	items := []map[string]any{
		{"id": 7, "name": "Margherita", "price": "5.50", "category": "Pizza", "is_available": true, "inventory_count": 20},
		{"id": 8, "name": "Diavola", "price": "5.50", "category": "Pizza", "is_available": true, "inventory_count": 3, "low_stock_threshold": 5},
	}
	if cat := r.URL.Query().Get("category"); cat != "" && cat != "Pizza" {
		items = nil
	}
	writeJSON(w, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"nextCursor": nil,
			"hasMore":    false,
			"limit":      8,
			"total":      len(items),
		},
	})
}

func (b *testBackend) getCategories(w http.ResponseWriter, r *http.Request) {
	b.record("GET /menu/categories")
	writeJSON(w, map[string]any{
		"categories": []map[string]any{
			{"category": "Pizza", "totalItems": 2, "availableItems": 2, "avgPrice": 5.50},
		},
		"summary": map[string]any{"totalCategories": 1, "totalItems": 2, "totalAvailable": 2},
	})
}

func (b *testBackend) getCart(w http.ResponseWriter, r *http.Request) {
	b.record("GET /cart")
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]map[string]any, 0, len(b.lines))
	count := 0
	subtotal := 0.0
	for _, line := range b.lines {
		lineTotal := itemPrice * float64(line.Quantity)
		subtotal += lineTotal
		count += line.Quantity
		items = append(items, map[string]any{
			"id":         line.ID,
			"cartId":     1,
			"menuItemId": line.MenuItemID,
			"quantity":   line.Quantity,
			"itemTotal":  fmt.Sprintf("%.2f", lineTotal),
			"menuItem": map[string]any{
				"id":    line.MenuItemID,
				"name":  fmt.Sprintf("Item %d", line.MenuItemID),
				"price": fmt.Sprintf("%.2f", itemPrice),
			},
		})
	}

	writeJSON(w, map[string]any{"cart": map[string]any{
		"id":        1,
		"userId":    7,
		"items":     items,
		"itemCount": count,
		"subtotal":  fmt.Sprintf("%.2f", subtotal),
		"total":     fmt.Sprintf("%.2f", subtotal),
	}})
}

func (b *testBackend) addItem(w http.ResponseWriter, r *http.Request) {
	b.record("POST /cart/items")
	var req struct {
		MenuItemID int64 `json:"menuItemId"`
		Quantity   int   `json:"quantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, line := range b.lines {
		if line.MenuItemID == req.MenuItemID {
			line.Quantity += req.Quantity
			writeJSON(w, map[string]any{"message": "Item added to cart"})
			return
		}
	}
	id := b.nextLineID
	b.nextLineID++
	b.lines[id] = &backendLine{ID: id, MenuItemID: req.MenuItemID, Quantity: req.Quantity}
	writeJSON(w, map[string]any{"message": "Item added to cart"})
}

func (b *testBackend) updateItem(w http.ResponseWriter, r *http.Request) {
	b.record("PUT /cart/items")
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var req struct {
		Quantity int `json:"quantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	line, ok := b.lines[id]
	if !ok {
		http.Error(w, `{"message":"Cart item not found"}`, http.StatusNotFound)
		return
	}
	line.Quantity = req.Quantity
	writeJSON(w, map[string]any{"message": "Cart updated"})
}

func (b *testBackend) removeItem(w http.ResponseWriter, r *http.Request) {
	b.record("DELETE /cart/items")
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.lines[id]; !ok {
		http.Error(w, `{"message":"Cart item not found"}`, http.StatusNotFound)
		return
	}
	delete(b.lines, id)
	writeJSON(w, map[string]any{"message": "Item removed from cart"})
}

func (b *testBackend) clearCart(w http.ResponseWriter, r *http.Request) {
	b.record("DELETE /cart/clear")
	b.mu.Lock()
	b.lines = make(map[int64]*backendLine)
	b.mu.Unlock()
	writeJSON(w, map[string]any{"message": "Cart cleared"})
}

func (b *testBackend) placeOrder(w http.ResponseWriter, r *http.Request) {
	b.record("POST /orders")
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) == 0 {
		http.Error(w, `{"message":"Cart is empty"}`, http.StatusBadRequest)
		return
	}

	total := 0.0
	for _, line := range b.lines {
		total += itemPrice * float64(line.Quantity)
	}
	id := b.nextOrderID
	b.nextOrderID++
	b.orders[id] = &backendOrder{ID: id, Status: "Order Received", Total: total}
	// Placing the order clears the cart server-side.
	b.lines = make(map[int64]*backendLine)

	writeJSON(w, map[string]any{
		"message": "Order placed",
		"order":   map[string]any{"id": id, "status": "Order Received", "total_amount": total},
	})
}

func (b *testBackend) listOrders(w http.ResponseWriter, r *http.Request) {
	b.record("GET /orders")
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]map[string]any, 0, len(b.orders))
	for _, ord := range b.orders {
		orders = append(orders, b.orderJSON(ord))
	}
	writeJSON(w, orders)
}

func (b *testBackend) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	b.record(fmt.Sprintf("GET /orders/%d", id))

	b.mu.Lock()
	defer b.mu.Unlock()

	ord, ok := b.orders[id]
	if !ok {
		http.Error(w, `{"message":"Order not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, b.orderJSON(ord))
}

func (b *testBackend) orderJSON(ord *backendOrder) map[string]any {
	return map[string]any{
		"id":           ord.ID,
		"userId":       7,
		"status":       ord.Status,
		"total_amount": ord.Total,
		"items":        []any{},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func alwaysAuthed() bool { return true }
func neverAuthed() bool  { return false }
