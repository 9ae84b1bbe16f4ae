package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"kiraye/models"
)

// Cache stores serialized reference lists.
type Cache interface {
	CacheGet(name string, maxAge time.Duration) ([]byte, bool, error)
	CachePut(name string, data []byte) error
}

// Catalog serves cities, regions and amenities. Cities and amenities
// rarely change and are cached for ttl; regions always come from the API.
type Catalog struct {
	api    ReferenceAPI
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCatalog(ref ReferenceAPI, cache Cache, ttl time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{api: ref, cache: cache, ttl: ttl, logger: logger}
}

func (c *Catalog) Cities(ctx context.Context) ([]models.City, error) {
	return cached(c, "cities", func() ([]models.City, error) { return c.api.Cities(ctx) })
}

func (c *Catalog) Amenities(ctx context.Context) ([]models.Amenity, error) {
	return cached(c, "amenities", func() ([]models.Amenity, error) { return c.api.Amenities(ctx) })
}

func (c *Catalog) Regions(ctx context.Context, cityID int) ([]models.Region, error) {
	return c.api.Regions(ctx, cityID)
}

// CityByName finds a city by folded name, for CLI flags like --city baki.
func (c *Catalog) CityByName(ctx context.Context, name string) (models.City, bool, error) {
	cities, err := c.Cities(ctx)
	if err != nil {
		return models.City{}, false, err
	}
	want := Fold(name)
	for _, city := range cities {
		if Fold(city.Name) == want {
			return city, true, nil
		}
	}
	return models.City{}, false, nil
}

// Invalidate drops cached lists so the next call refetches.
func (c *Catalog) Invalidate() {
	if c.cache == nil {
		return
	}
	for _, name := range []string{"cities", "amenities"} {
		if err := c.cache.CachePut(name, []byte("null")); err != nil {
			c.logger.Warn("invalidate cache", "name", name, "error", err)
		}
	}
}

func cached[T any](c *Catalog, name string, fetch func() ([]T, error)) ([]T, error) {
	if c.cache != nil {
		data, ok, err := c.cache.CacheGet(name, c.ttl)
		if err != nil {
			c.logger.Warn("read cache", "name", name, "error", err)
		}
		if ok {
			var out []T
			if err := json.Unmarshal(data, &out); err == nil && out != nil {
				return out, nil
			}
		}
	}

	out, err := fetch()
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			if err := c.cache.CachePut(name, data); err != nil {
				c.logger.Warn("write cache", "name", name, "error", err)
			}
		}
	}
	return out, nil
}
