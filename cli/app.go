package cli

import (
	"fmt"
	"io"
	"log/slog"

	"kiraye/api"
	"kiraye/config"
	"kiraye/httputil"
	"kiraye/logging"
	"kiraye/services"
	"kiraye/session"
	"kiraye/storage"
)

// app is the wired client shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	logFile *logging.RotatingWriter
	store   *storage.SQLiteStore
	client  *api.Client
	session *session.State

	catalog  *services.Catalog
	browse   *services.Browse
	listings *services.Listings
	profile  *services.Profile
	auth     *services.Auth
}

// newApp loads config, opens the local database and restores the saved
// session. console receives log lines as well as the log file; pass nil
// when the terminal belongs to the TUI.
func newApp(console io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := logging.Setup(logging.Options{
		Path:    cfg.LogPath,
		Level:   cfg.LogLevel,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", cfg.LogPath, err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}

	client := api.New(cfg.API, httputil.NewClients(cfg.API), logger)
	sess := session.New(store, logger)
	if err := sess.Restore(); err != nil {
		logger.Warn("restore session", "error", err)
	}

	catalog := services.NewCatalog(client, store, cfg.CacheTTL, logger)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		logFile:  logFile,
		store:    store,
		client:   client,
		session:  sess,
		catalog:  catalog,
		browse:   services.NewBrowse(client, cfg.PageSize, logger),
		listings: services.NewListings(client, catalog, sess, logger),
		profile:  services.NewProfile(client, sess, logger),
		auth:     services.NewAuth(client, sess, store, logger),
	}

	logger.Debug("client ready", "api", cfg.API.BaseURL, "db", cfg.DBPath, "logged_in", sess.LoggedIn())
	return a, nil
}

func (a *app) Close() {
	a.store.Close()
	a.logFile.Close()
}
