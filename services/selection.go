package services

import (
	"context"
	"slices"

	"kiraye/models"
)

// RegionRequest is a region fetch issued for one city selection. Gen ties
// the response back to the selection that asked for it.
type RegionRequest struct {
	CityID int
	Gen    uint64
}

type RegionResponse struct {
	Request RegionRequest
	Regions []models.Region
	Err     error
}

// Selection is the dependent city→region choice. The region list always
// belongs to the current city; changing city clears it and asks for a new
// one exactly once.
type Selection struct {
	cities   []models.City
	cityID   int
	regionID int
	regions  []models.Region
	pending  bool
	err      error
	gen      uint64

	// region to pick once the list arrives (update forms)
	wantRegionID   int
	wantRegionName string
}

func NewSelection(cities []models.City) *Selection {
	return &Selection{cities: cities}
}

func (s *Selection) SetCities(cities []models.City) {
	s.cities = cities
}

func (s *Selection) Cities() []models.City { return s.cities }
func (s *Selection) CityID() int           { return s.cityID }
func (s *Selection) RegionID() int         { return s.regionID }
func (s *Selection) Regions() []models.Region {
	return s.regions
}
func (s *Selection) Pending() bool { return s.pending }
func (s *Selection) Err() error    { return s.err }

// RegionEnabled reports whether a region may be picked right now.
func (s *Selection) RegionEnabled() bool {
	return s.cityID != 0 && !s.pending && s.err == nil
}

func (s *Selection) City() (models.City, bool) {
	for _, c := range s.cities {
		if c.ID == s.cityID {
			return c, true
		}
	}
	return models.City{}, false
}

func (s *Selection) Region() (models.Region, bool) {
	for _, r := range s.regions {
		if r.ID == s.regionID {
			return r, true
		}
	}
	return models.Region{}, false
}

// SetCity switches the parent selection. It returns the region fetch to
// run, or false when nothing changed or the city is unknown. Zero clears
// the city.
func (s *Selection) SetCity(cityID int) (RegionRequest, bool) {
	if cityID == s.cityID {
		return RegionRequest{}, false
	}
	if cityID != 0 && len(s.cities) > 0 && !slices.ContainsFunc(s.cities, func(c models.City) bool {
		return c.ID == cityID
	}) {
		return RegionRequest{}, false
	}

	s.gen++
	s.cityID = cityID
	s.regionID = 0
	s.regions = nil
	s.err = nil
	s.wantRegionID, s.wantRegionName = 0, ""

	if cityID == 0 {
		s.pending = false
		return RegionRequest{}, false
	}

	s.pending = true
	return RegionRequest{CityID: cityID, Gen: s.gen}, true
}

// Preset selects a city and remembers which region to pick when the
// region list arrives, by id or else by name.
func (s *Selection) Preset(cityID, regionID int, regionName string) (RegionRequest, bool) {
	req, ok := s.SetCity(cityID)
	s.wantRegionID = regionID
	s.wantRegionName = regionName
	if !ok && cityID == s.cityID && cityID != 0 && !s.pending {
		s.pickWanted()
	}
	return req, ok
}

// SetRegion accepts only ids from the current region list.
func (s *Selection) SetRegion(regionID int) bool {
	if regionID == 0 {
		s.regionID = 0
		return true
	}
	if !s.RegionEnabled() {
		return false
	}
	for _, r := range s.regions {
		if r.ID == regionID {
			s.regionID = regionID
			return true
		}
	}
	return false
}

// ApplyRegions installs a region list. Responses for a city that is no
// longer selected, or superseded by a newer request, are dropped.
func (s *Selection) ApplyRegions(resp RegionResponse) bool {
	if resp.Request.Gen != s.gen || resp.Request.CityID != s.cityID {
		return false
	}

	s.pending = false
	if resp.Err != nil {
		s.regions = nil
		s.err = resp.Err
		return true
	}

	s.err = nil
	s.regions = make([]models.Region, 0, len(resp.Regions))
	for _, r := range resp.Regions {
		if r.CityID == resp.Request.CityID {
			s.regions = append(s.regions, r)
		}
	}
	s.pickWanted()
	return true
}

func (s *Selection) pickWanted() {
	if s.wantRegionID == 0 && s.wantRegionName == "" {
		return
	}
	for _, r := range s.regions {
		if (s.wantRegionID != 0 && r.ID == s.wantRegionID) ||
			(s.wantRegionID == 0 && Fold(r.Name) == Fold(s.wantRegionName)) {
			s.regionID = r.ID
			break
		}
	}
	s.wantRegionID, s.wantRegionName = 0, ""
}

// FetchRegions runs req against the API. It is safe to call off the UI loop.
func FetchRegions(ctx context.Context, ref ReferenceAPI, req RegionRequest) RegionResponse {
	regions, err := ref.Regions(ctx, req.CityID)
	return RegionResponse{Request: req, Regions: regions, Err: err}
}
