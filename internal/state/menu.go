package state

import (
	"context"
	"fmt"
	"time"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/internal/cache"
	"github.com/quickplate/ordering-client/internal/domain/menu"
	"github.com/quickplate/ordering-client/pkg/logger"
)

const (
	// menuFreshness keeps browsing snappy; the menu changes rarely.
	menuFreshness = 5 * time.Minute
	// categoriesFreshness is even longer; categories barely ever change.
	categoriesFreshness = 10 * time.Minute

	categoriesKey = "categories"
)

// Menu caches menu pages and the category summary. Menu browsing needs no
// session, so unlike the cart and orders it is not gated on authentication.
type Menu struct {
	api        *api.Client
	pages      *cache.Cache[menu.Page]
	categories *cache.Cache[menu.Categories]
	log        *logger.Logger
}

// NewMenu creates the menu state.
func NewMenu(client *api.Client, log *logger.Logger) *Menu {
	return &Menu{
		api:        client,
		pages:      cache.New[menu.Page]("menu", menuFreshness),
		categories: cache.New[menu.Categories]("categories", categoriesFreshness),
		log:        log.WithField("state", "menu"),
	}
}

// Page returns one page of menu items, served from cache within the freshness
// window. Each category/search/cursor combination is cached independently.
func (m *Menu) Page(ctx context.Context, q api.MenuQuery) (menu.Page, error) {
	return m.pages.Get(ctx, pageKey(q), func(ctx context.Context) (menu.Page, error) {
		return m.api.Menu(ctx, q)
	})
}

// Categories returns the category summary.
func (m *Menu) Categories(ctx context.Context) (menu.Categories, error) {
	return m.categories.Get(ctx, categoriesKey, func(ctx context.Context) (menu.Categories, error) {
		return m.api.Categories(ctx)
	})
}

// Refresh drops all cached menu data so the next read refetches.
func (m *Menu) Refresh() {
	m.pages.Clear()
	m.categories.Clear()
}

func pageKey(q api.MenuQuery) string {
	category := q.Category
	if category == "all" {
		category = ""
	}
	return fmt.Sprintf("menu:%s:%s:%d:%d", category, q.Search, q.Cursor, q.Limit)
}
