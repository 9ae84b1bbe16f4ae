package services

import (
	"slices"

	"kiraye/models"
)

// PageRequest is one page fetch. Gen is the list generation it was issued
// under; only the newest generation is ever applied.
type PageRequest struct {
	Filters  models.FilterState
	Page     int
	PageSize int
	Gen      uint64
}

type PageResponse struct {
	Request PageRequest
	Result  models.PageResult
	Err     error
}

// PagedList tracks one server-paged result set.
type PagedList struct {
	pageSize int
	page     int
	total    int
	items    []models.Listing
	filters  models.FilterState
	loading  bool
	err      error
	gen      uint64
}

func NewPagedList(pageSize int) *PagedList {
	if pageSize < 1 {
		pageSize = 1
	}
	return &PagedList{pageSize: pageSize, page: 1}
}

func (p *PagedList) Page() int                   { return p.page }
func (p *PagedList) PageSize() int               { return p.pageSize }
func (p *PagedList) TotalCount() int             { return p.total }
func (p *PagedList) Items() []models.Listing     { return p.items }
func (p *PagedList) Filters() models.FilterState { return p.filters }
func (p *PagedList) Loading() bool               { return p.loading }
func (p *PagedList) Err() error                  { return p.err }

// TotalPages is ceil(total/pageSize), zero for an empty result.
func (p *PagedList) TotalPages() int {
	if p.total <= 0 {
		return 0
	}
	return (p.total + p.pageSize - 1) / p.pageSize
}

// Refresh starts a fetch for filters at the page they point to.
func (p *PagedList) Refresh(filters models.FilterState) PageRequest {
	p.gen++
	p.filters = filters
	p.page = filters.CurrentPage()
	p.loading = true
	return PageRequest{Filters: filters, Page: p.page, PageSize: p.pageSize, Gen: p.gen}
}

// SetPage moves to page n. Out-of-range pages and the current page are
// ignored and issue no request.
func (p *PagedList) SetPage(n int) (PageRequest, bool) {
	if n == p.page || n < 1 || n > p.TotalPages() {
		return PageRequest{}, false
	}
	f := p.filters
	f.Page = models.Some(n)
	return p.Refresh(f), true
}

// Apply installs a response if it belongs to the latest request. Items and
// total are replaced together; a failure empties the list.
func (p *PagedList) Apply(resp PageResponse) bool {
	if resp.Request.Gen != p.gen {
		return false
	}
	defer func() { p.loading = false }()

	if resp.Err != nil {
		p.items = []models.Listing{}
		p.total = 0
		p.err = resp.Err
		return true
	}

	p.err = nil
	p.items = resp.Result.Items
	if p.items == nil {
		p.items = []models.Listing{}
	}
	p.total = resp.Result.TotalCount
	return true
}

// Overflow reports a fetch for the last page when the total shrank below
// the current page, e.g. after deletions elsewhere.
func (p *PagedList) Overflow() (PageRequest, bool) {
	last := p.TotalPages()
	if p.loading || last == 0 || p.page <= last {
		return PageRequest{}, false
	}
	f := p.filters
	f.Page = models.Some(last)
	return p.Refresh(f), true
}

// Snapshot is a copy of the visible rows for undoing an optimistic edit.
// It is only valid for the generation it was taken under.
type Snapshot struct {
	items []models.Listing
	total int
	gen   uint64
}

// Remove drops listing id from the visible page ahead of the server call.
func (p *PagedList) Remove(id int) (Snapshot, bool) {
	i := slices.IndexFunc(p.items, func(l models.Listing) bool { return l.ID == id })
	if i < 0 {
		return Snapshot{}, false
	}
	snap := Snapshot{items: slices.Clone(p.items), total: p.total, gen: p.gen}
	p.items = slices.Delete(slices.Clone(p.items), i, i+1)
	p.total--
	return snap, true
}

// Restore undoes a Remove. A snapshot from before a newer fetch is
// dropped, the newer rows already reflect the server.
func (p *PagedList) Restore(s Snapshot) bool {
	if s.gen != p.gen {
		return false
	}
	p.items = s.items
	p.total = s.total
	return true
}
