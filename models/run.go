package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// WatchRun records one execution of a saved search.
type WatchRun struct {
	ID            string     `json:"id" db:"id"`
	Search        string     `json:"search" db:"search"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ListingsNew   int        `json:"listings_new" db:"listings_new"`
	Error         string     `json:"error,omitempty" db:"error"`
}
