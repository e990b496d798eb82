package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/quickplate/ordering-client/internal/domain/menu"
)

// MenuQuery selects a page of menu items. Zero values are omitted from the
// request; the backend applies its own defaults.
type MenuQuery struct {
	// Category filters to one category. "all" and "" mean no filter.
	Category string
	// Search is a free-text filter.
	Search string
	// Cursor is the pagination cursor from the previous page.
	Cursor int64
	// Limit caps the page size.
	Limit int
}

// Menu fetches one page of menu items using cursor pagination.
func (c *Client) Menu(ctx context.Context, q MenuQuery) (menu.Page, error) {
	params := url.Values{}
	if q.Category != "" && q.Category != "all" {
		params.Set("category", q.Category)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	params.Set("cursor", strconv.FormatInt(q.Cursor, 10))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var page menu.Page
	if err := c.get(ctx, "/menu", params, &page); err != nil {
		return menu.Page{}, err
	}
	return page, nil
}

// Categories fetches the category summary.
func (c *Client) Categories(ctx context.Context) (menu.Categories, error) {
	var cats menu.Categories
	if err := c.get(ctx, "/menu/categories", nil, &cats); err != nil {
		return menu.Categories{}, err
	}
	return cats, nil
}
