package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/pkg/logger"
)

func TestMenu_PageCachedWithinFreshness(t *testing.T) {
	backend := newTestBackend(t)
	menuState := NewMenu(backend.client(t), logger.NewNop())
	ctx := context.Background()

	page, err := menuState.Page(ctx, api.MenuQuery{Limit: 8})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Margherita", page.Items[0].Name)
	assert.False(t, page.Items[0].LowStock())
	assert.True(t, page.Items[1].LowStock())

	_, err = menuState.Page(ctx, api.MenuQuery{Limit: 8})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("GET /menu"), "second read should be cached")
}

func TestMenu_DistinctQueriesCachedIndependently(t *testing.T) {
	backend := newTestBackend(t)
	menuState := NewMenu(backend.client(t), logger.NewNop())
	ctx := context.Background()

	_, err := menuState.Page(ctx, api.MenuQuery{Category: "Pizza"})
	require.NoError(t, err)
	page, err := menuState.Page(ctx, api.MenuQuery{Category: "Desserts"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 2, backend.count("GET /menu"), "distinct filters fetch separately")

	// "all" and the empty category share a cache entry.
	_, err = menuState.Page(ctx, api.MenuQuery{})
	require.NoError(t, err)
	_, err = menuState.Page(ctx, api.MenuQuery{Category: "all"})
	require.NoError(t, err)
	assert.Equal(t, 3, backend.count("GET /menu"))
}

func TestMenu_Categories(t *testing.T) {
	backend := newTestBackend(t)
	menuState := NewMenu(backend.client(t), logger.NewNop())
	ctx := context.Background()

	cats, err := menuState.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats.Categories, 1)
	assert.Equal(t, "Pizza", cats.Categories[0].Category)
	assert.Equal(t, 1, cats.Summary.TotalCategories)

	_, err = menuState.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("GET /menu/categories"))
}

func TestMenu_RefreshDropsCache(t *testing.T) {
	backend := newTestBackend(t)
	menuState := NewMenu(backend.client(t), logger.NewNop())
	ctx := context.Background()

	_, err := menuState.Page(ctx, api.MenuQuery{})
	require.NoError(t, err)
	_, err = menuState.Categories(ctx)
	require.NoError(t, err)

	menuState.Refresh()

	_, err = menuState.Page(ctx, api.MenuQuery{})
	require.NoError(t, err)
	_, err = menuState.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("GET /menu"))
	assert.Equal(t, 2, backend.count("GET /menu/categories"))
}
