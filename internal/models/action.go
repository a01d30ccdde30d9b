package models

import (
	"time"

	"github.com/google/uuid"
)

// Action is the persisted, analytics-ready record of one detected CRM change.
// Actions are append-only: created once, never mutated.
type Action struct {
	ID                 uuid.UUID                `json:"id"`
	Type               string                   `json:"type"`
	Timestamp          time.Time                `json:"timestamp"`
	Properties         map[string]PropertyValue `json:"properties"`
	Identity           string                   `json:"identity,omitempty"`
	IncludeInAnalytics int                      `json:"includeInAnalytics"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// RawSyncEvent is the in-memory form of a detected change, produced by the
// paginators and consumed by the batcher. It is never persisted directly;
// formatting into an Action merges the per-object-type property buckets and
// runs them through the property filter.
type RawSyncEvent struct {
	ActionName         string
	ActionDate         time.Time
	CompanyProperties  map[string]PropertyValue
	UserProperties     map[string]PropertyValue
	MeetingProperties  map[string]PropertyValue
	Identity           string
	IncludeInAnalytics int
}
