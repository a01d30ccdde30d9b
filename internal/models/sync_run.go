package models

import (
	"time"

	"github.com/google/uuid"
)

type SyncRunStatus string

const (
	RunRunning   SyncRunStatus = "running"
	RunCompleted SyncRunStatus = "completed"
	RunFailed    SyncRunStatus = "failed"
)

// SyncRun is the summary of one full sync run, kept in Redis so the status
// endpoint can report on an unattended worker.
type SyncRun struct {
	ID         uuid.UUID     `json:"id"`
	Status     SyncRunStatus `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Error      string        `json:"error,omitempty"`
}
