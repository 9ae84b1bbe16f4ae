package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"kiraye/config"
	"kiraye/models"
	"kiraye/services"
)

// RunStore keeps what the watcher has already reported.
type RunStore interface {
	MarkSeen(search string, ids []int) ([]int, error)
	CreateRun(run *models.WatchRun) error
	UpdateRun(run *models.WatchRun) error
}

// NotifyFunc receives the listings a search turned up for the first time.
type NotifyFunc func(search string, fresh []models.Listing)

// Watcher re-runs saved searches on a schedule and reports new listings.
type Watcher struct {
	cfg      *config.Config
	listings services.ListingAPI
	store    RunStore
	logger   *slog.Logger
	notify   NotifyFunc

	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once
	runMu  sync.Mutex
}

func New(cfg *config.Config, listings services.ListingAPI, store RunStore, logger *slog.Logger) *Watcher {
	w := &Watcher{
		cfg:      cfg,
		listings: listings,
		store:    store,
		logger:   logger,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
	w.notify = w.logFresh
	return w
}

// OnNew replaces the default notification, which logs each new listing.
func (w *Watcher) OnNew(fn NotifyFunc) {
	w.notify = fn
}

func (w *Watcher) Start(ctx context.Context) error {
	if len(w.cfg.Searches) == 0 {
		return errors.New("no saved searches in config/searches")
	}

	if w.cfg.Scheduler.Cron != "" {
		w.logger.Info("starting watcher", "cron", w.cfg.Scheduler.Cron)
		_, err := w.cron.AddFunc(w.cfg.Scheduler.Cron, func() {
			if err := w.RunAll(ctx); err != nil {
				w.logger.Error("scheduled run", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		w.cron.Start()
	} else if w.cfg.Scheduler.Interval > 0 {
		w.logger.Info("starting watcher", "interval", w.cfg.Scheduler.Interval)
		w.ticker = time.NewTicker(w.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-w.ticker.C:
					if err := w.RunAll(ctx); err != nil {
						w.logger.Error("scheduled run", "error", err)
					}
				case <-w.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		w.logger.Info("no WATCH_CRON or WATCH_INTERVAL set, running searches once")
	}

	return w.RunAll(ctx)
}

func (w *Watcher) Stop() {
	w.once.Do(func() {
		if w.cron != nil {
			<-w.cron.Stop().Done()
		}
		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.stopCh)
	})
}

// RunAll runs every saved search in name order. Runs never overlap.
func (w *Watcher) RunAll(ctx context.Context) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	names := make([]string, 0, len(w.cfg.Searches))
	for name := range w.cfg.Searches {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.RunSearch(ctx, w.cfg.Searches[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// RunSearch fetches up to MaxPages of one saved search and records which
// listings are new.
func (w *Watcher) RunSearch(ctx context.Context, s *config.SavedSearch) (*models.WatchRun, error) {
	run := &models.WatchRun{
		ID:        uuid.NewString(),
		Search:    s.Name,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := w.store.CreateRun(run); err != nil {
		return nil, err
	}

	found, err := w.collect(ctx, s)
	if err == nil {
		var fresh []models.Listing
		fresh, err = w.markFresh(s.Name, found)
		run.ListingsNew = len(fresh)
		if len(fresh) > 0 {
			w.notify(s.Name, fresh)
		}
	}

	finished := time.Now()
	run.FinishedAt = &finished
	run.ListingsFound = len(found)
	run.Status = models.RunStatusCompleted
	if err != nil {
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	}
	if uerr := w.store.UpdateRun(run); uerr != nil {
		w.logger.Warn("update run", "search", s.Name, "error", uerr)
	}

	w.logger.Info("search finished",
		"search", s.Name,
		"status", string(run.Status),
		"found", run.ListingsFound,
		"new", run.ListingsNew,
		"took", finished.Sub(run.StartedAt).Round(time.Millisecond))
	return run, err
}

func (w *Watcher) collect(ctx context.Context, s *config.SavedSearch) ([]models.Listing, error) {
	browse := services.NewBrowse(w.listings, w.cfg.PageSize, w.logger)
	req := browse.Open(s.Query)
	if req.Page != 1 {
		f := req.Filters
		f.Page = models.None[int]()
		req = browse.List.Refresh(f)
	}

	var all []models.Listing
	for page := 1; page <= s.MaxPages; page++ {
		resp := browse.Fetch(ctx, req)
		if resp.Err != nil {
			return all, resp.Err
		}
		browse.Apply(resp)
		all = append(all, browse.List.Items()...)

		next, ok := browse.SetPage(page + 1)
		if !ok {
			break
		}
		req = next
	}
	return all, nil
}

func (w *Watcher) markFresh(search string, found []models.Listing) ([]models.Listing, error) {
	ids := make([]int, len(found))
	for i, l := range found {
		ids[i] = l.ID
	}
	freshIDs, err := w.store.MarkSeen(search, ids)
	if err != nil {
		return nil, err
	}

	fresh := make([]models.Listing, 0, len(freshIDs))
	for _, l := range found {
		if slices.Contains(freshIDs, l.ID) {
			fresh = append(fresh, l)
		}
	}
	return fresh, nil
}

func (w *Watcher) logFresh(search string, fresh []models.Listing) {
	for _, l := range fresh {
		w.logger.Info("new listing",
			"search", search,
			"id", l.ID,
			"title", l.Title,
			"price", l.Price.String(),
			"city", l.CityName,
			"region", l.RegionName)
	}
}
