package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEARCHES_DIR", filepath.Join(dir, "missing"))
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, 12, cfg.PageSize)
	require.Equal(t, 20*time.Second, cfg.API.RequestTimeout)
	require.Empty(t, cfg.Searches)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEARCHES_DIR", t.TempDir())
	t.Setenv("API_BASE_URL", "http://localhost:5000/api/")
	t.Setenv("PAGE_SIZE", "4")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("WATCH_INTERVAL", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	require.Equal(t, 4, cfg.PageSize)
	require.Equal(t, 3*time.Second, cfg.API.RequestTimeout)
	require.Zero(t, cfg.Scheduler.Interval)
}

func TestLoadSearches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "baku.yaml", "name: baku-cheap\nquery: CityId=1&MaxPrice=800\nmax_pages: 3\n")
	writeFile(t, dir, "sumqayit.yml", "query: CityId=2\n")
	writeFile(t, dir, "notes.txt", "ignored")

	cfg := &Config{Searches: map[string]*SavedSearch{}}
	require.NoError(t, cfg.loadSearches(dir))
	require.Len(t, cfg.Searches, 2)

	require.Equal(t, "CityId=1&MaxPrice=800", cfg.Searches["baku-cheap"].Query)
	require.Equal(t, 3, cfg.Searches["baku-cheap"].MaxPages)

	// name falls back to the file name, pages to one
	require.Equal(t, 1, cfg.Searches["sumqayit"].MaxPages)
}

func TestLoadSearches_BadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: [unclosed\n")

	cfg := &Config{Searches: map[string]*SavedSearch{}}
	require.Error(t, cfg.loadSearches(dir))
}
