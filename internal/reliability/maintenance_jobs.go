package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// MaintainedDB is a database the maintenance job can check and checkpoint.
type MaintainedDB interface {
	Name() string
	HealthCheck(ctx context.Context) error
	WALCheckpoint(mode string) error
}

// DiskUsageFunc reports free bytes for a path.
type DiskUsageFunc func(path string) (freeBytes uint64, err error)

// gopsutilFree is the default DiskUsageFunc.
func gopsutilFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// Free space thresholds
const (
	criticalFreeBytes = 500 * 1000 * 1000
	lowFreeBytes      = 2 * 1000 * 1000 * 1000
)

// DailyMaintenanceJob checks integrity, truncates WAL files and watches disk space
type DailyMaintenanceJob struct {
	databases []MaintainedDB
	dataDir   string
	diskFree  DiskUsageFunc
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(databases []MaintainedDB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		diskFree:  gopsutilFree,
		log:       log.With().Str("job", "database_maintenance").Logger(),
	}
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		// corruption cannot be repaired automatically
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			return fmt.Errorf("database %s failed integrity check: %w", db.Name(), err)
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	return j.checkDiskSpace()
}

// Name returns the job name
func (j *DailyMaintenanceJob) Name() string {
	return "database_maintenance"
}

func (j *DailyMaintenanceJob) checkDiskSpace() error {
	free, err := j.diskFree(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read disk usage")
		return nil
	}

	availableGB := float64(free) / 1e9
	switch {
	case free < criticalFreeBytes:
		j.log.Error().Float64("available_gb", availableGB).Msg("Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	case free < lowFreeBytes:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}
	return nil
}

// BackupJob uploads a backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewBackupJob creates the database backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       10 * time.Minute,
		log:           log.With().Str("job", "database_backup").Logger(),
	}
}

// Run executes the backup job. A rotation failure does not fail the run.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "database_backup"
}
