package api

import (
	"context"
	"net/http"
	"strconv"

	"kiraye/models"
)

func (c *Client) Cities(ctx context.Context) ([]models.City, error) {
	return getJSON[[]models.City](ctx, c, request{method: http.MethodGet, path: "/City/GetAll"})
}

// Regions returns the regions of one city.
func (c *Client) Regions(ctx context.Context, cityID int) ([]models.Region, error) {
	regions, err := getJSON[[]models.Region](ctx, c, request{
		method: http.MethodGet,
		path:   "/Region/GetRegionsByCityId/" + strconv.Itoa(cityID),
	})
	if err != nil {
		return nil, err
	}
	// some deployments omit cityId on region rows
	for i := range regions {
		if regions[i].CityID == 0 {
			regions[i].CityID = cityID
		}
	}
	return regions, nil
}

func (c *Client) Amenities(ctx context.Context) ([]models.Amenity, error) {
	return getJSON[[]models.Amenity](ctx, c, request{method: http.MethodGet, path: "/Amenity/GetAll"})
}
