package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL: server.URL,
		Token:   func() string { return token },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client, server
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without BaseURL should fail")
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "pagination": map[string]any{}})
	}), "tok-abc")

	if _, err := client.Menu(context.Background(), MenuQuery{}); err != nil {
		t.Fatalf("Menu failed: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q, want Bearer tok-abc", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID should be set")
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	var sawHeader bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawHeader = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok", "userId": 1})
	}), "")

	if _, err := client.Register(context.Background(), RegisterRequest{Name: "a"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if sawHeader || gotAuth != "" {
		t.Errorf("Authorization header sent without a session: %q", gotAuth)
	}
}

func TestClient_UnauthorizedMapsToSentinel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}), "stale")

	_, err := client.Cart(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatal("error should be *Error")
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", apiErr.Status)
	}
	if apiErr.Message != "token expired" {
		t.Errorf("Message = %q, want server message", apiErr.Message)
	}
}

func TestClient_NotFoundMapsToSentinel(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler(), "tok")

	_, err := client.Order(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClient_MenuQueryParams(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "pagination": map[string]any{}})
	}), "tok")

	_, err := client.Menu(context.Background(), MenuQuery{
		Category: "Pizza",
		Search:   "margherita",
		Cursor:   16,
		Limit:    8,
	})
	if err != nil {
		t.Fatalf("Menu failed: %v", err)
	}

	want := map[string]string{"category": "Pizza", "search": "margherita", "cursor": "16", "limit": "8"}
	for k, v := range want {
		if len(gotQuery[k]) != 1 || gotQuery[k][0] != v {
			t.Errorf("query %s = %v, want %s", k, gotQuery[k], v)
		}
	}
}

func TestClient_MenuAllCategoryOmitted(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "pagination": map[string]any{}})
	}), "tok")

	if _, err := client.Menu(context.Background(), MenuQuery{Category: "all"}); err != nil {
		t.Fatalf("Menu failed: %v", err)
	}
	if _, ok := gotQuery["category"]; ok {
		t.Error("category=all should not be sent")
	}
}

func TestClient_PlaceOrderSendsOnlyDeliveryFields(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "Order placed",
			"order":   map[string]any{"id": 42, "status": "Order Received", "total_amount": 31.5},
		})
	}), "tok")

	resp, err := client.PlaceOrder(context.Background(), PlaceOrderRequest{
		DeliveryName:    "Ada",
		DeliveryAddress: "1 Analytical Way",
		DeliveryPhone:   "0123456789",
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	// Line items and pricing are server-derived; the client must never
	// send them.
	for _, forbidden := range []string{"items", "total_amount", "price", "cart"} {
		if _, ok := gotBody[forbidden]; ok {
			t.Errorf("request body must not contain %q", forbidden)
		}
	}
	if gotBody["delivery_name"] != "Ada" {
		t.Errorf("delivery_name = %v, want Ada", gotBody["delivery_name"])
	}
	if resp.Order.ID != 42 {
		t.Errorf("Order.ID = %d, want 42", resp.Order.ID)
	}
}

func TestClient_CartUnwrapsEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"cart": map[string]any{
				"id": 3, "userId": 7, "itemCount": 2,
				"subtotal": "19.00", "total": "19.00",
				"items": []any{},
			},
		})
	}), "tok")

	crt, err := client.Cart(context.Background())
	if err != nil {
		t.Fatalf("Cart failed: %v", err)
	}
	if crt.ID != 3 || crt.ItemCount != 2 || crt.Subtotal != "19.00" {
		t.Errorf("cart = %+v, want server-computed fields", crt)
	}
}

func TestExtractMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"Item unavailable"}`, "Item unavailable"},
		{`{"error":"bad request"}`, "bad request"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`{"errors":[{"message":"first of many"}]}`, "first of many"},
		{`{"unrelated":true}`, ""},
		{`not json at all`, ""},
		{``, ""},
	}
	for _, tc := range cases {
		if got := extractMessage([]byte(tc.body)); got != tc.want {
			t.Errorf("extractMessage(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestServerMessage(t *testing.T) {
	withMsg := &Error{Status: 400, Message: "Quantity exceeds stock"}
	if got := ServerMessage(withMsg, "generic"); got != "Quantity exceeds stock" {
		t.Errorf("ServerMessage = %q, want server message", got)
	}

	plain := errors.New("connection refused")
	if got := ServerMessage(plain, "Failed to add item to cart"); got != "Failed to add item to cart" {
		t.Errorf("ServerMessage = %q, want fallback", got)
	}
}
