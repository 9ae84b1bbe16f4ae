package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kiraye/logging"
	"kiraye/models"
)

func seedListings(env *testEnv, n int) {
	env.srv.Lock()
	defer env.srv.Unlock()
	for i := 1; i <= n; i++ {
		env.srv.Listings = append(env.srv.Listings, models.Listing{
			ID:     i,
			Title:  "Listing",
			CityID: 1 + i%2,
			Rooms:  i % 3,
			Price:  decimal.NewFromInt(int64(100 * i)),
		})
	}
}

func TestBrowse_SetPageFetchesExactlyOnce(t *testing.T) {
	env := newEnv(t)
	seedListings(env, 10)
	ctx := context.Background()

	b := NewBrowse(env.client, 4, logging.Discard())
	require.True(t, b.Apply(b.Fetch(ctx, b.Open(""))))
	require.Equal(t, 3, b.List.TotalPages())

	_, ok := b.SetPage(5)
	require.False(t, ok)
	require.Len(t, env.srv.Requests("/House/Filter"), 1)

	req, ok := b.SetPage(2)
	require.True(t, ok)
	require.True(t, b.Apply(b.Fetch(ctx, req)))

	reqs := env.srv.Requests("/House/Filter")
	require.Len(t, reqs, 2)
	require.Equal(t, "2", reqs[1].Query.Get("PageNumber"))
	require.Equal(t, "4", reqs[1].Query.Get("PageSize"))
	require.Equal(t, []int{5, 6, 7, 8}, ids(b.List.Items()))
	require.Equal(t, "page=2", b.QueryString())
}

func TestBrowse_LateResponseForOldFiltersIsDropped(t *testing.T) {
	env := newEnv(t)
	seedListings(env, 10)
	ctx := context.Background()
	b := NewBrowse(env.client, 20, logging.Discard())

	reqA, _ := b.ApplyFilters(models.FilterState{CityID: models.Some(1)})
	reqB, _ := b.ApplyFilters(models.FilterState{CityID: models.Some(2)})

	respB := b.Fetch(ctx, reqB)
	respA := b.Fetch(ctx, reqA)

	require.True(t, b.Apply(respB))
	require.False(t, b.Apply(respA))

	for _, l := range b.List.Items() {
		require.Equal(t, 2, l.CityID)
	}
	require.Equal(t, 5, b.List.TotalCount())
}

func TestBrowse_FilterChangeResetsPage(t *testing.T) {
	env := newEnv(t)
	seedListings(env, 10)
	ctx := context.Background()
	b := NewBrowse(env.client, 2, logging.Discard())

	b.Apply(b.Fetch(ctx, b.Open("page=3")))
	require.Equal(t, 3, b.List.Page())

	f := b.Filters()
	f.Rooms = models.Some(1)
	req, ok := b.ApplyFilters(f)
	require.True(t, ok)
	require.Equal(t, 1, req.Page)
	require.False(t, req.Filters.Page.IsSet())

	// a page-only change keeps the query and moves the page
	b.Apply(b.Fetch(ctx, req))
	f = b.Filters()
	f.Page = models.Some(2)
	req, ok = b.ApplyFilters(f)
	require.True(t, ok)
	require.Equal(t, 2, req.Page)
}

func TestBrowse_InvalidInputMakesNoRequest(t *testing.T) {
	env := newEnv(t)
	b := NewBrowse(env.client, 4, logging.Discard())

	_, err := ParseFilterInput(b.Filters(), FilterInput{Rooms: "abc"})
	require.Error(t, err)
	require.Zero(t, env.srv.Total())
}

func TestBrowse_ServerErrorEmptiesList(t *testing.T) {
	env := newEnv(t)
	seedListings(env, 3)
	ctx := context.Background()
	b := NewBrowse(env.client, 4, logging.Discard())
	b.Apply(b.Fetch(ctx, b.Open("")))
	require.Len(t, b.List.Items(), 3)

	env.srv.Fail("/House/Filter", 500, "text/plain", "database down")
	req, _ := b.ApplyFilters(b.Filters())
	b.Apply(b.Fetch(ctx, req))

	require.Empty(t, b.List.Items())
	require.EqualError(t, b.List.Err(), "database down")
	require.False(t, b.List.Loading())
}

func ids(ls []models.Listing) []int {
	out := make([]int, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}
