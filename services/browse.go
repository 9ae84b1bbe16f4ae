package services

import (
	"context"
	"log/slog"

	"kiraye/models"
)

// Browse drives the public search page: the filter state, the paged result
// list and the fetches between them.
type Browse struct {
	api    ListingAPI
	logger *slog.Logger
	List   *PagedList
}

func NewBrowse(listings ListingAPI, pageSize int, logger *slog.Logger) *Browse {
	return &Browse{api: listings, logger: logger, List: NewPagedList(pageSize)}
}

func (b *Browse) Filters() models.FilterState {
	return b.List.Filters()
}

// QueryString is the shareable form of the current filters.
func (b *Browse) QueryString() string {
	return ToQueryString(b.List.Filters())
}

// ApplyFilters switches to next. A change to anything but the page starts
// over at page 1; a pure page change behaves like SetPage; re-applying the
// same filters reloads the current page.
func (b *Browse) ApplyFilters(next models.FilterState) (PageRequest, bool) {
	cur := b.List.Filters()
	if next.SameQuery(cur) {
		if next.Page.IsSet() && next.CurrentPage() != b.List.Page() {
			return b.List.SetPage(next.CurrentPage())
		}
		next.Page = cur.Page
		return b.List.Refresh(next), true
	}
	next.Page = models.None[int]()
	return b.List.Refresh(next), true
}

// Open loads filters from a query string, keeping its page.
func (b *Browse) Open(query string) PageRequest {
	return b.List.Refresh(FromQueryString(query))
}

func (b *Browse) SetPage(n int) (PageRequest, bool) {
	return b.List.SetPage(n)
}

// Fetch runs req. It does not touch the list, so it can run off the UI loop.
func (b *Browse) Fetch(ctx context.Context, req PageRequest) PageResponse {
	res, err := b.api.Filter(ctx, ServerQuery(req.Filters, req.Page, req.PageSize))
	if err != nil {
		b.logger.Warn("filter listings", "query", ToQueryString(req.Filters), "error", err)
	}
	return PageResponse{Request: req, Result: res, Err: err}
}

// Apply installs resp and reports whether it was current.
func (b *Browse) Apply(resp PageResponse) bool {
	if !b.List.Apply(resp) {
		b.logger.Debug("dropped stale page", "gen", resp.Request.Gen)
		return false
	}
	return true
}
