package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://rashad2002-001-site1.ltempurl.com/api"

type Config struct {
	API       APIConfig
	Scheduler SchedulerConfig
	PageSize  int
	CacheTTL  time.Duration
	DBPath    string
	LogPath   string
	LogLevel  string
	Searches  map[string]*SavedSearch
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	ProxyURL       string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// SavedSearch is a named browse query re-run by the watcher.
type SavedSearch struct {
	Name     string `yaml:"name"`
	Query    string `yaml:"query"`
	MaxPages int    `yaml:"max_pages"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("API_BASE_URL", DefaultBaseURL), "/"),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 20*time.Second),
			UploadTimeout:  getEnvDuration("UPLOAD_TIMEOUT", 2*time.Minute),
			ProxyURL:       os.Getenv("HTTP_PROXY_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("WATCH_CRON"),
			Interval: getEnvDuration("WATCH_INTERVAL", 0),
		},
		PageSize: getEnvInt("PAGE_SIZE", 12),
		CacheTTL: getEnvDuration("CACHE_TTL", 24*time.Hour),
		DBPath:   getEnv("DB_PATH", "kiraye.db"),
		LogPath:  getEnv("LOG_PATH", "kiraye.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Searches: make(map[string]*SavedSearch),
	}

	if cfg.PageSize < 1 {
		cfg.PageSize = 12
	}

	if err := cfg.loadSearches(getEnv("SEARCHES_DIR", "config/searches")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSearches(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		var search SavedSearch
		if err := yaml.Unmarshal(data, &search); err != nil {
			return err
		}
		if search.Name == "" {
			search.Name = strings.TrimSuffix(entry.Name(), ext)
		}
		if search.MaxPages < 1 {
			search.MaxPages = 1
		}

		c.Searches[search.Name] = &search
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
