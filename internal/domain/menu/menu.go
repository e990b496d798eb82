// Package menu defines the server-owned menu records. The client never
// mutates these; they arrive fully computed from the API.
package menu

// Item is a single menu entry as the server returns it.
type Item struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Price             string `json:"price"`
	ImageURL          string `json:"image_url"`
	Category          string `json:"category"`
	IsAvailable       bool   `json:"is_available"`
	InventoryCount    int    `json:"inventory_count"`
	LowStockThreshold int    `json:"low_stock_threshold,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}

// LowStock reports whether the item should carry a low-stock warning.
// The threshold is server-provided; a zero threshold disables the warning.
func (i Item) LowStock() bool {
	return i.LowStockThreshold > 0 && i.InventoryCount <= i.LowStockThreshold
}

// Pagination is the cursor block attached to a menu page.
type Pagination struct {
	NextCursor *int64 `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
}

// Page is one page of menu items.
type Page struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// CategoryInfo summarizes one category.
type CategoryInfo struct {
	Category       string  `json:"category"`
	TotalItems     int     `json:"totalItems"`
	AvailableItems int     `json:"availableItems"`
	AvgPrice       float64 `json:"avgPrice"`
}

// CategorySummary is the aggregate block of the categories response.
type CategorySummary struct {
	TotalCategories int `json:"totalCategories"`
	TotalItems      int `json:"totalItems"`
	TotalAvailable  int `json:"totalAvailable"`
}

// Categories is the full categories response.
type Categories struct {
	Categories []CategoryInfo  `json:"categories"`
	Summary    CategorySummary `json:"summary"`
}
