package models

import "github.com/shopspring/decimal"

// FilterState is the browse query. Every field carries explicit presence so
// an unset price is distinguishable from a price of zero.
type FilterState struct {
	Search      Opt[string]
	CityID      Opt[int]
	RegionID    Opt[int]
	MinPrice    Opt[decimal.Decimal]
	MaxPrice    Opt[decimal.Decimal]
	Rooms       Opt[int]
	SortByPrice Opt[string]
	Page        Opt[int]
}

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// CurrentPage is the 1-based page the state points at.
func (f FilterState) CurrentPage() int {
	if p := f.Page.Or(1); p > 1 {
		return p
	}
	return 1
}

// SameQuery reports whether f and o differ at most in their page.
func (f FilterState) SameQuery(o FilterState) bool {
	if f.Search != o.Search || f.CityID != o.CityID || f.RegionID != o.RegionID ||
		f.Rooms != o.Rooms || f.SortByPrice != o.SortByPrice {
		return false
	}
	return sameDecimal(f.MinPrice, o.MinPrice) && sameDecimal(f.MaxPrice, o.MaxPrice)
}

// Equal compares field by field, decimals by value.
func (f FilterState) Equal(o FilterState) bool {
	return f.SameQuery(o) && f.Page == o.Page
}

func sameDecimal(a, b Opt[decimal.Decimal]) bool {
	av, aok := a.Get()
	bv, bok := b.Get()
	if aok != bok {
		return false
	}
	return !aok || av.Equal(bv)
}
