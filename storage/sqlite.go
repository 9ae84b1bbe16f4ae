package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kiraye/models"
)

// SQLiteStore holds client-side state: the persisted session, cached
// reference data, realtor confirmations and saved-search watch state.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS reference_cache (
		name TEXT PRIMARY KEY,
		data JSON NOT NULL,
		fetched_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS makler_confirmations (
		session_id TEXT PRIMARY KEY,
		message TEXT,
		confirmed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS seen_listings (
		search TEXT NOT NULL,
		listing_id INTEGER NOT NULL,
		first_seen_at DATETIME,
		PRIMARY KEY (search, listing_id)
	);

	CREATE TABLE IF NOT EXISTS watch_runs (
		id TEXT PRIMARY KEY,
		search TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER DEFAULT 0,
		listings_new INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_search ON watch_runs(search, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	return err
}

// Delete removes keys; missing keys are not an error.
func (s *SQLiteStore) Delete(keys ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CacheGet returns cached data younger than maxAge.
func (s *SQLiteStore) CacheGet(name string, maxAge time.Duration) ([]byte, bool, error) {
	var data []byte
	var fetchedAt time.Time
	err := s.db.QueryRow(`SELECT data, fetched_at FROM reference_cache WHERE name = ?`, name).
		Scan(&data, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if maxAge > 0 && time.Since(fetchedAt) > maxAge {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *SQLiteStore) CachePut(name string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO reference_cache (name, data, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at`,
		name, data, time.Now())
	return err
}

func (s *SQLiteStore) Confirmation(sessionID string) (string, bool, error) {
	var msg sql.NullString
	err := s.db.QueryRow(`SELECT message FROM makler_confirmations WHERE session_id = ?`, sessionID).Scan(&msg)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return msg.String, true, nil
}

func (s *SQLiteStore) SaveConfirmation(sessionID, message string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO makler_confirmations (session_id, message, confirmed_at)
		VALUES (?, ?, ?)`, sessionID, message, time.Now())
	return err
}

// MarkSeen records listing ids for a saved search and returns the ones not
// seen before, in input order.
func (s *SQLiteStore) MarkSeen(search string, ids []int) ([]int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	var fresh []int
	for _, id := range ids {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO seen_listings (search, listing_id, first_seen_at)
			VALUES (?, ?, ?)`, search, id, now)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			fresh = append(fresh, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *SQLiteStore) CreateRun(run *models.WatchRun) error {
	_, err := s.db.Exec(`
		INSERT INTO watch_runs (id, search, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID, run.Search, run.StartedAt, run.Status)
	return err
}

func (s *SQLiteStore) UpdateRun(run *models.WatchRun) error {
	_, err := s.db.Exec(`
		UPDATE watch_runs SET finished_at = ?, status = ?, listings_found = ?,
			listings_new = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound, run.ListingsNew, run.Error, run.ID)
	return err
}

// RecentRuns lists the latest watch runs, newest first.
func (s *SQLiteStore) RecentRuns(limit int) ([]models.WatchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, search, started_at, finished_at, status, listings_found, listings_new, COALESCE(error, '')
		FROM watch_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.WatchRun
	for rows.Next() {
		var r models.WatchRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Search, &r.StartedAt, &finished, &r.Status,
			&r.ListingsFound, &r.ListingsNew, &r.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
