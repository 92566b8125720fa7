// Package scheduler wires the maintenance jobs onto a single gocron v2
// scheduler instance.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"helpbot/internal/shared/logger"
)

// Sweeper drops expired rate-limit windows and returns how many were removed.
type Sweeper interface {
	Sweep() int
}

// AnalyticsPruner removes counter rows older than before.
type AnalyticsPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// BackupService creates database backups and prunes old ones.
type BackupService interface {
	Create(ctx context.Context) (string, error)
	Prune(ctx context.Context) (int, error)
}

// Manager owns every scheduled job. Jobs run in singleton mode so a slow run
// never overlaps the next one.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: scheduler,
		logger:    log.Named("scheduler"),
	}, nil
}

// RegisterRateLimitSweep registers the hourly sweep of expired limiter
// windows.
func (m *Manager) RegisterRateLimitSweep(sweepers ...Sweeper) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			m.sweepRateLimits(sweepers)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("ratelimit", "sweep"),
		gocron.WithName("ratelimit-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered rate-limit sweep", "interval", "1h")
	return nil
}

func (m *Manager) sweepRateLimits(sweepers []Sweeper) {
	for _, sweeper := range sweepers {
		if removed := sweeper.Sweep(); removed > 0 {
			m.logger.Debugw("rate-limit windows swept", "removed", removed)
		}
	}
}

// RegisterAnalyticsPrune registers the daily prune of analytics rows older
// than retentionDays.
func (m *Manager) RegisterAnalyticsPrune(pruner AnalyticsPruner, retentionDays int) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("30 4 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.pruneAnalytics(ctx, pruner, retentionDays)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("analytics", "prune"),
		gocron.WithName("analytics-prune"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered analytics prune", "schedule", "04:30 daily", "retention_days", retentionDays)
	return nil
}

func (m *Manager) pruneAnalytics(ctx context.Context, pruner AnalyticsPruner, retentionDays int) {
	startTime := time.Now()
	before := time.Now().AddDate(0, 0, -retentionDays)

	removed, err := pruner.Prune(ctx, before)
	if err != nil {
		m.logger.Errorw("analytics prune failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if removed > 0 {
		m.logger.Infow("analytics rows pruned",
			"count", removed,
			"duration", time.Since(startTime),
		)
	}
}

// RegisterBackupJobs registers the daily backup and the weekly prune of old
// backup files.
func (m *Manager) RegisterBackupJobs(backups BackupService) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 3 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.createBackup(ctx, backups)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("backup", "create"),
		gocron.WithName("backup-create"),
	)
	if err != nil {
		return err
	}

	_, err = m.scheduler.NewJob(
		gocron.CronJob("0 5 * * 1", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.pruneBackups(ctx, backups)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("backup", "prune"),
		gocron.WithName("backup-prune"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered backup jobs", "create", "03:00 daily", "prune", "05:00 Monday")
	return nil
}

func (m *Manager) createBackup(ctx context.Context, backups BackupService) {
	startTime := time.Now()

	path, err := backups.Create(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("backup failed", "error", err)
		return
	}

	m.logger.Infow("backup completed",
		"path", path,
		"duration", time.Since(startTime),
	)
}

func (m *Manager) pruneBackups(ctx context.Context, backups BackupService) {
	removed, err := backups.Prune(ctx)
	if err != nil {
		m.logger.Errorw("backup prune failed", "error", err)
		return
	}
	if removed > 0 {
		m.logger.Infow("old backups removed", "count", removed)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "job_count", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down and waits for running jobs.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler stopped")
	return nil
}

func (m *Manager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}
