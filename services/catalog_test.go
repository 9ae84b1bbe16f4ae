package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kiraye/logging"
)

func TestCatalog_CachesCities(t *testing.T) {
	env := newEnv(t)
	env.srv.Cities = testCities
	c := NewCatalog(env.client, env.store, time.Hour, logging.Discard())
	ctx := context.Background()

	first, err := c.Cities(ctx)
	require.NoError(t, err)
	second, err := c.Cities(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, env.srv.Requests("/City/GetAll"), 1)

	c.Invalidate()
	_, err = c.Cities(ctx)
	require.NoError(t, err)
	require.Len(t, env.srv.Requests("/City/GetAll"), 2)
}

func TestCatalog_CityByName(t *testing.T) {
	env := newEnv(t)
	env.srv.Cities = testCities
	c := NewCatalog(env.client, nil, 0, logging.Discard())

	city, ok, err := c.CityByName(context.Background(), "SUMQAYIT")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, city.ID)

	city, ok, err = c.CityByName(context.Background(), "gence")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, city.ID)

	_, ok, err = c.CityByName(context.Background(), "Paris")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFold(t *testing.T) {
	require.Equal(t, "xirdalan", Fold("Xırdalan"))
	require.Equal(t, "seki", Fold("Şəki"))
	require.Equal(t, "baki", Fold(" Bakı "))
	require.True(t, MatchName("Gəncə", "GENC"))
}
