package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// OperationTimer provides a defer-friendly way to measure operation duration.
// Runs longer than slowAfter are logged at warn level.
//
// Usage:
//
//	func (s *Service) Refresh() {
//	    defer utils.OperationTimer("refresh", 30*time.Second, s.log)()
//	}
func OperationTimer(operation string, slowAfter time.Duration, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		if slowAfter > 0 && duration > slowAfter {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
			return duration
		}

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")
		return duration
	}
}
