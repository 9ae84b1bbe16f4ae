package models

import "github.com/shopspring/decimal"

type Image struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// Listing is a rental post as returned by the House endpoints. Detail
// endpoints fill every field; owner-scoped lists only carry the summary.
type Listing struct {
	ID           int             `json:"id"`
	Title        string          `json:"title"`
	Address      string          `json:"address"`
	CityID       int             `json:"cityId,omitempty"`
	CityName     string          `json:"cityName"`
	RegionID     int             `json:"regionId,omitempty"`
	RegionName   string          `json:"regionName"`
	Rooms        int             `json:"rooms"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Images       []Image         `json:"images"`
	AmenityNames []string        `json:"amenityNames"`
	OwnerID      string          `json:"ownerId,omitempty"`
	OwnerName    string          `json:"ownerName"`
	OwnerSurname string          `json:"ownerSurname"`
	ContactPhone string          `json:"contactPhone"`
	Email        string          `json:"email"`
}

// Cover returns the first image URL, if any.
func (l Listing) Cover() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0].URL
}

type PageResult struct {
	Items      []Listing `json:"items"`
	TotalCount int       `json:"totalCount"`
}
