// Package scheduler provides the periodic sync trigger using gocron v2.
// The trigger is best-effort: a tick that fires while a run is in flight
// is rescheduled rather than stacked.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/turnernet/tracksync/internal/shared/logger"
)

// SyncRunner is the engine-side contract the trigger invokes.
type SyncRunner interface {
	SyncAll(ctx context.Context) error
}

// Manager owns the gocron scheduler and the periodic sync job.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewManager creates a scheduler manager.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Manager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterSyncJob schedules runner.SyncAll at the given interval, firing
// once immediately on start. The timeout bounds one full run.
func (m *Manager) RegisterSyncJob(runner SyncRunner, interval, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := runner.SyncAll(ctx); err != nil {
				m.logger.Warnw("scheduled sync failed", "error", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("sync-all"),
	)
	if err != nil {
		return err
	}
	m.logger.Infow("sync job registered", "interval", interval)
	return nil
}

// Start begins executing scheduled jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false
	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("scheduler shutdown failed", "error", err)
		return err
	}
	m.logger.Infow("scheduler stopped")
	return nil
}
