package server

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
)

// StatusMonitor periodically checks system status and broadcasts an event when
// the overall status or the breaker state changes.
type StatusMonitor struct {
	system  *SystemHandlers
	emitter domain.EventEmitter
	log     zerolog.Logger

	lastStatus  string
	lastBreaker string
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(system *SystemHandlers, emitter domain.EventEmitter, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		system:  system,
		emitter: emitter,
		log:     log.With().Str("component", "status_monitor").Logger(),
	}
}

// Start begins periodic status monitoring until ctx is cancelled
func (m *StatusMonitor) Start(ctx context.Context, interval time.Duration) {
	go m.monitor(ctx, interval)
}

func (m *StatusMonitor) monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check compares the current snapshot with the previous one. The first check
// only records a baseline unless the system already starts unhealthy.
func (m *StatusMonitor) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snap := m.system.Snapshot(checkCtx)
	first := m.lastStatus == ""
	changed := snap.Status != m.lastStatus || snap.Breaker != m.lastBreaker
	m.lastStatus, m.lastBreaker = snap.Status, snap.Breaker

	if !changed || (first && snap.Status == StatusHealthy) {
		return
	}

	m.log.Info().
		Str("status", snap.Status).
		Str("breaker", snap.Breaker).
		Msg("System status changed")

	if m.emitter != nil {
		m.emitter.Emit("", &events.SystemStatusChangedData{
			Status:  snap.Status,
			Reason:  statusReason(snap),
			Breaker: snap.Breaker,
		})
	}
}

func statusReason(snap SystemStatusResponse) string {
	var reasons []string
	for _, db := range snap.Databases {
		if !db.Healthy {
			reasons = append(reasons, db.Name+" database unhealthy")
		}
	}
	if snap.Breaker != "" && snap.Breaker != "closed" {
		reasons = append(reasons, "text generation breaker "+snap.Breaker)
	}
	return strings.Join(reasons, "; ")
}
