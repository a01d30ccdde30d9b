package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/models"
	"github.com/prudhvinik1/crmsync/internal/repositories"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// SyncRunner is one full sync run. *worker.Worker implements it.
type SyncRunner interface {
	Run(ctx context.Context) error
}

// SyncService executes sync runs and records their outcome. At most one run
// may be active per process, so the daily schedule and the manual trigger
// cannot interleave.
type SyncService struct {
	worker  SyncRunner
	runs    repositories.SyncRunRepository
	log     *zap.Logger
	running atomic.Bool
}

func NewSyncService(worker SyncRunner, runs repositories.SyncRunRepository, log *zap.Logger) *SyncService {
	return &SyncService{worker: worker, runs: runs, log: log}
}

// RunOnce executes one full sync run. Returns ErrSyncInProgress when a run is
// already active.
func (s *SyncService) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer s.running.Store(false)

	run := &models.SyncRun{
		ID:        uuid.New(),
		Status:    models.RunRunning,
		StartedAt: time.Now(),
	}
	if err := s.runs.SetLastRun(ctx, run); err != nil {
		s.log.Warn("failed to record run start", zap.Error(err))
	}

	err := s.worker.Run(ctx)

	finished := time.Now()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = models.RunCompleted
	}
	if saveErr := s.runs.SetLastRun(ctx, run); saveErr != nil {
		s.log.Warn("failed to record run result", zap.Error(saveErr))
	}

	return err
}

// Running reports whether a run is currently active.
func (s *SyncService) Running() bool {
	return s.running.Load()
}

// LastRun returns the most recent run's summary.
func (s *SyncService) LastRun(ctx context.Context) (*models.SyncRun, error) {
	return s.runs.GetLastRun(ctx)
}
