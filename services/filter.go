package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kiraye/api"
	"kiraye/models"
)

// Query string keys of a FilterState. Page uses the browse page key, not
// the server's PageNumber.
const (
	keySearch   = "Search"
	keyCityID   = "CityId"
	keyRegionID = "RegionId"
	keyMinPrice = "MinPrice"
	keyMaxPrice = "MaxPrice"
	keyRooms    = "Rooms"
	keySort     = "SortByPrice"
	keyPage     = "page"
)

// ToQueryString encodes f with empty fields omitted and keys sorted, so
// equal states always produce the same string.
func ToQueryString(f models.FilterState) string {
	return filterValues(f, true).Encode()
}

// FromQueryString is the inverse of ToQueryString. Values that do not
// parse are treated as absent. A leading "?" is accepted.
func FromQueryString(q string) models.FilterState {
	// ParseQuery keeps every pair it could parse, so its error is ignored
	vals, _ := url.ParseQuery(strings.TrimPrefix(q, "?"))

	var f models.FilterState
	if v := vals.Get(keySearch); v != "" {
		f.Search = models.Some(v)
	}
	f.CityID = parsePositive(vals.Get(keyCityID))
	f.RegionID = parsePositive(vals.Get(keyRegionID))
	f.MinPrice = parseDecimal(vals.Get(keyMinPrice))
	f.MaxPrice = parseDecimal(vals.Get(keyMaxPrice))
	f.Rooms = parseNonNegative(vals.Get(keyRooms))
	if v := vals.Get(keySort); v != "" {
		f.SortByPrice = models.Some(v)
	}
	f.Page = parsePositive(vals.Get(keyPage))
	return f
}

// ServerQuery renders the House/Filter parameters for one page.
func ServerQuery(f models.FilterState, page, pageSize int) url.Values {
	vals := filterValues(f, false)
	vals.Set("PageNumber", strconv.Itoa(page))
	vals.Set("PageSize", strconv.Itoa(pageSize))
	return vals
}

// filterValues drops ids and pages below 1 and negative rooms, the same
// values FromQueryString treats as absent.
func filterValues(f models.FilterState, withPage bool) url.Values {
	vals := url.Values{}
	if v, ok := f.Search.Get(); ok && v != "" {
		vals.Set(keySearch, v)
	}
	if v, ok := f.CityID.Get(); ok && v > 0 {
		vals.Set(keyCityID, strconv.Itoa(v))
	}
	if v, ok := f.RegionID.Get(); ok && v > 0 {
		vals.Set(keyRegionID, strconv.Itoa(v))
	}
	if v, ok := f.MinPrice.Get(); ok {
		vals.Set(keyMinPrice, v.String())
	}
	if v, ok := f.MaxPrice.Get(); ok {
		vals.Set(keyMaxPrice, v.String())
	}
	if v, ok := f.Rooms.Get(); ok && v >= 0 {
		vals.Set(keyRooms, strconv.Itoa(v))
	}
	if v, ok := f.SortByPrice.Get(); ok && v != "" {
		vals.Set(keySort, v)
	}
	if v, ok := f.Page.Get(); ok && withPage && v > 0 {
		vals.Set(keyPage, strconv.Itoa(v))
	}
	return vals
}

func parsePositive(s string) models.Opt[int] {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return models.None[int]()
	}
	return models.Some(n)
}

func parseNonNegative(s string) models.Opt[int] {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return models.None[int]()
	}
	return models.Some(n)
}

func parseDecimal(s string) models.Opt[decimal.Decimal] {
	if s == "" {
		return models.None[decimal.Decimal]()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.None[decimal.Decimal]()
	}
	return models.Some(d)
}

// FilterInput is the raw text a user typed into the filter bar.
type FilterInput struct {
	Search   string
	MinPrice string
	MaxPrice string
	Rooms    string
	Sort     string
}

// ParseFilterInput validates free-text filter fields and merges them into
// base, keeping its city and region. Bad numbers come back as a validation
// error so no request is made.
func ParseFilterInput(base models.FilterState, in FilterInput) (models.FilterState, error) {
	f := base
	fields := map[string]string{}

	f.Search = models.None[string]()
	if s := strings.TrimSpace(in.Search); s != "" {
		f.Search = models.Some(s)
	}

	f.MinPrice, f.MaxPrice = models.None[decimal.Decimal](), models.None[decimal.Decimal]()
	if s := strings.TrimSpace(in.MinPrice); s != "" {
		if d, err := decimal.NewFromString(s); err != nil || d.IsNegative() {
			fields[keyMinPrice] = "must be a number ≥ 0"
		} else {
			f.MinPrice = models.Some(d)
		}
	}
	if s := strings.TrimSpace(in.MaxPrice); s != "" {
		if d, err := decimal.NewFromString(s); err != nil || d.IsNegative() {
			fields[keyMaxPrice] = "must be a number ≥ 0"
		} else {
			f.MaxPrice = models.Some(d)
		}
	}
	if lo, ok := f.MinPrice.Get(); ok {
		if hi, ok := f.MaxPrice.Get(); ok && lo.GreaterThan(hi) {
			fields[keyMaxPrice] = "must not be below the minimum price"
		}
	}

	f.Rooms = models.None[int]()
	if s := strings.TrimSpace(in.Rooms); s != "" {
		if n, err := strconv.Atoi(s); err != nil || n < 0 {
			fields[keyRooms] = "must be a whole number ≥ 0"
		} else {
			f.Rooms = models.Some(n)
		}
	}

	f.SortByPrice = models.None[string]()
	switch s := strings.ToLower(strings.TrimSpace(in.Sort)); s {
	case "":
	case models.SortAsc, models.SortDesc:
		f.SortByPrice = models.Some(s)
	default:
		fields[keySort] = "must be asc or desc"
	}

	if len(fields) > 0 {
		return base, api.Validation(fields)
	}
	return f, nil
}
