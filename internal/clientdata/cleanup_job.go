package clientdata

import (
	"time"

	"github.com/rs/zerolog"
)

// CleanupJob removes long-expired entries from the market cache.
// It should be scheduled to run daily.
type CleanupJob struct {
	repo  *Repository
	grace time.Duration
	log   zerolog.Logger
}

// NewCleanupJob creates a new market cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:  repo,
		grace: StaleRetention,
		log:   log.With().Str("job", "market_cache_cleanup").Logger(),
	}
}

// Run removes every entry that expired more than StaleRetention ago.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteAllExpired(j.grace)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired market cache entries")
		return err
	}

	var totalDeleted int64
	for ns, count := range results {
		if count > 0 {
			j.log.Info().
				Str("namespace", ns).
				Int64("deleted", count).
				Msg("Cleaned up expired cache entries")
			totalDeleted += count
		}
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Market cache cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "market_cache_cleanup"
}
