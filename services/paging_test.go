package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"kiraye/models"
)

func listings(ids ...int) []models.Listing {
	out := make([]models.Listing, len(ids))
	for i, id := range ids {
		out[i] = models.Listing{ID: id}
	}
	return out
}

func loaded(t *testing.T, pageSize, total int) *PagedList {
	t.Helper()
	p := NewPagedList(pageSize)
	req := p.Refresh(models.FilterState{})
	require.True(t, p.Apply(PageResponse{Request: req, Result: models.PageResult{Items: listings(1, 2, 3, 4), TotalCount: total}}))
	return p
}

func TestPagedList_TotalPages(t *testing.T) {
	require.Equal(t, 3, loaded(t, 4, 10).TotalPages())
	require.Equal(t, 2, loaded(t, 4, 8).TotalPages())
	require.Equal(t, 0, loaded(t, 4, 0).TotalPages())
	require.Equal(t, 1, loaded(t, 4, 1).TotalPages())
}

func TestPagedList_SetPage(t *testing.T) {
	p := loaded(t, 4, 10)

	_, ok := p.SetPage(5)
	require.False(t, ok)
	_, ok = p.SetPage(0)
	require.False(t, ok)
	_, ok = p.SetPage(1)
	require.False(t, ok, "current page")
	require.Equal(t, 1, p.Page())
	require.False(t, p.Loading())

	req, ok := p.SetPage(2)
	require.True(t, ok)
	require.Equal(t, 2, req.Page)
	require.Equal(t, 4, req.PageSize)
	require.Equal(t, 2, req.Filters.Page.Or(0))
	require.True(t, p.Loading())
}

func TestPagedList_ApplyIgnoresStale(t *testing.T) {
	p := NewPagedList(4)
	first := p.Refresh(models.FilterState{Search: models.Some("a")})
	second := p.Refresh(models.FilterState{Search: models.Some("b")})

	require.True(t, p.Apply(PageResponse{Request: second, Result: models.PageResult{Items: listings(2), TotalCount: 1}}))
	require.False(t, p.Apply(PageResponse{Request: first, Result: models.PageResult{Items: listings(1, 9), TotalCount: 2}}))

	require.Equal(t, listings(2), p.Items())
	require.Equal(t, 1, p.TotalCount())
	require.False(t, p.Loading())
}

func TestPagedList_StaleResponseKeepsLoading(t *testing.T) {
	p := NewPagedList(4)
	first := p.Refresh(models.FilterState{})
	p.Refresh(models.FilterState{Rooms: models.Some(2)})

	p.Apply(PageResponse{Request: first, Err: errors.New("late failure")})
	require.True(t, p.Loading())
	require.NoError(t, p.Err())
}

func TestPagedList_FailureEmpties(t *testing.T) {
	p := loaded(t, 4, 10)
	req, _ := p.SetPage(3)

	require.True(t, p.Apply(PageResponse{Request: req, Err: errors.New("boom")}))
	require.Empty(t, p.Items())
	require.NotNil(t, p.Items())
	require.Zero(t, p.TotalCount())
	require.Error(t, p.Err())
	require.False(t, p.Loading())
}

func TestPagedList_Overflow(t *testing.T) {
	p := loaded(t, 4, 10)
	req, _ := p.SetPage(3)
	p.Apply(PageResponse{Request: req, Result: models.PageResult{Items: []models.Listing{}, TotalCount: 6}})

	next, ok := p.Overflow()
	require.True(t, ok)
	require.Equal(t, 2, next.Page)

	p.Apply(PageResponse{Request: next, Result: models.PageResult{Items: listings(5, 6), TotalCount: 6}})
	_, ok = p.Overflow()
	require.False(t, ok)
}

func TestPagedList_RemoveRestore(t *testing.T) {
	p := loaded(t, 4, 10)

	snap, ok := p.Remove(2)
	require.True(t, ok)
	require.Equal(t, listings(1, 3, 4), p.Items())
	require.Equal(t, 9, p.TotalCount())

	require.True(t, p.Restore(snap))
	require.Equal(t, listings(1, 2, 3, 4), p.Items())
	require.Equal(t, 10, p.TotalCount())

	_, ok = p.Remove(42)
	require.False(t, ok)
}

func TestPagedList_RestoreAfterNewerFetchIsDropped(t *testing.T) {
	p := loaded(t, 4, 10)

	snap, ok := p.Remove(1)
	require.True(t, ok)

	next, ok := p.SetPage(2)
	require.True(t, ok)
	require.True(t, p.Apply(PageResponse{Request: next, Result: models.PageResult{Items: listings(5, 6, 7, 8), TotalCount: 10}}))

	require.False(t, p.Restore(snap))
	require.Equal(t, 2, p.Page())
	require.Equal(t, listings(5, 6, 7, 8), p.Items())
	require.Equal(t, 10, p.TotalCount())
}
