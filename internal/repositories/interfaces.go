package repositories

import (
	"context"
	"time"

	"github.com/prudhvinik1/crmsync/internal/models"
)

// DomainRepository is the credential store: one tenant document with nested
// accounts. Save writes the whole document after any token or checkpoint
// mutation.
type DomainRepository interface {
	GetDomain(ctx context.Context) (*models.Domain, error)
	Save(ctx context.Context, domain *models.Domain) error
}

// ActionRepository is the append-only event store. Inserts never dedup:
// redelivered events produce duplicate records.
type ActionRepository interface {
	InsertActions(ctx context.Context, actions []*models.Action) error
	GetByDateRange(ctx context.Context, start, end time.Time, actionType string) ([]*models.Action, error)
}

// SyncRunRepository keeps the most recent run's summary for the status
// endpoint.
type SyncRunRepository interface {
	SetLastRun(ctx context.Context, run *models.SyncRun) error
	GetLastRun(ctx context.Context) (*models.SyncRun, error)
}
