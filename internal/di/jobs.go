package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/clientdata"
	"github.com/smasshh/finmate/internal/config"
	"github.com/smasshh/finmate/internal/reliability"
	"github.com/smasshh/finmate/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers every periodic job.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(container.Metrics, log)
	container.Scheduler = sched

	// Market overview refreshes
	if err := sched.AddJob(cfg.IndicesSchedule, scheduler.NewMarketIndicesRefreshJob(container.MarketOverview)); err != nil {
		return err
	}
	if err := sched.AddJob(cfg.NewsSchedule, scheduler.NewMarketNewsRefreshJob(container.MarketOverview)); err != nil {
		return err
	}

	// Cache hygiene
	if err := sched.AddJob(cfg.CleanupSchedule, clientdata.NewCleanupJob(container.ClientDataRepo, log)); err != nil {
		return err
	}

	// Database maintenance
	maintained := make([]reliability.MaintainedDB, 0, 2)
	for _, db := range container.Databases() {
		maintained = append(maintained, db)
	}
	if err := sched.AddJob(cfg.MaintenanceSchedule, reliability.NewDailyMaintenanceJob(maintained, cfg.DataDir, log)); err != nil {
		return err
	}

	// Backups only run with a configured bucket
	if !cfg.Backup.Enabled() {
		log.Info().Msg("BACKUP_S3_BUCKET not set, database backups disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := reliability.NewS3Client(ctx, cfg.Backup, log)
	if err != nil {
		return fmt.Errorf("failed to create backup storage client: %w", err)
	}

	// The cache database is disposable and stays out of backups
	container.BackupService = reliability.NewBackupService(store, []reliability.Snapshotter{container.FinmateDB}, cfg.DataDir, log)
	if err := sched.AddJob(cfg.BackupSchedule, reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)); err != nil {
		return err
	}

	return nil
}
