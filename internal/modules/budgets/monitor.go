package budgets

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
)

// NotificationRecorder counts emitted notifications by level (metrics).
type NotificationRecorder interface {
	RecordBudgetNotification(level string)
}

// ThresholdMonitor turns successive progress computations into one-shot warnings.
//
// The first computation for a user only records a baseline. After that a budget
// notifies when it newly becomes exceeded, or becomes approaching from below the
// approaching threshold; staying in the same state, or falling back from exceeded
// to approaching, never notifies. Checks for one user are serialized.
type ThresholdMonitor struct {
	store    BaselineStore
	emitter  domain.EventEmitter
	recorder NotificationRecorder
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewThresholdMonitor creates a monitor. emitter and recorder may be nil.
func NewThresholdMonitor(store BaselineStore, emitter domain.EventEmitter, recorder NotificationRecorder, log zerolog.Logger) *ThresholdMonitor {
	return &ThresholdMonitor{
		store:    store,
		emitter:  emitter,
		recorder: recorder,
		log:      log.With().Str("component", "budget_monitor").Logger(),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (m *ThresholdMonitor) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Check compares progress with the stored baseline, stores the new baseline and
// returns the notifications to deliver.
func (m *ThresholdMonitor) Check(ctx context.Context, userID string, progress []Progress) []Notification {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var notifications []Notification
	compare := func(prev Baseline, found bool) Baseline {
		var next Baseline
		next, notifications = crossings(prev, found, progress)
		return next
	}

	if updater, ok := m.store.(BaselineUpdater); ok {
		if err := updater.Update(ctx, userID, compare); err != nil {
			m.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to update budget baseline, skipping notifications")
			return []Notification{}
		}
	} else {
		prev, found, err := m.store.Load(ctx, userID)
		if err != nil {
			// Without a baseline we cannot tell a crossing from a steady state.
			m.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load budget baseline, skipping notifications")
			found = false
		}
		next := compare(prev, found)
		if err := m.store.Save(ctx, userID, next); err != nil {
			m.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to save budget baseline")
		}
	}

	for _, n := range notifications {
		m.log.Info().
			Str("user_id", userID).
			Str("category", n.Category).
			Str("level", n.Level).
			Float64("percentage", n.Percentage).
			Msg("Budget threshold crossed")
		if m.recorder != nil {
			m.recorder.RecordBudgetNotification(n.Level)
		}
		if m.emitter != nil {
			m.emitter.Emit(userID, &events.BudgetThresholdCrossedData{
				BudgetID:   n.BudgetID,
				Category:   n.Category,
				Level:      n.Level,
				Spent:      n.Spent,
				Budget:     n.Budget,
				Percentage: n.Percentage,
				Message:    n.Message,
			})
		}
	}
	return notifications
}

// crossings builds the next baseline and the notifications for budgets that
// crossed a threshold since prev. Nothing notifies when no baseline was found.
func crossings(prev Baseline, found bool, progress []Progress) (Baseline, []Notification) {
	next := make(Baseline, len(progress))
	notifications := make([]Notification, 0)
	for _, p := range progress {
		key := baselineKey(p.Budget)
		flags := Flags{Approaching: p.IsApproaching, Exceeded: p.IsExceeded}
		next[key] = flags

		if !found {
			continue
		}
		before := prev[key]

		switch {
		case flags.Exceeded && !before.Exceeded:
			notifications = append(notifications, newNotification(p, LevelExceeded))
		case flags.Approaching && !before.Approaching && !before.Exceeded:
			notifications = append(notifications, newNotification(p, LevelApproaching))
		}
	}
	return next, notifications
}

func baselineKey(b Budget) string {
	return strconv.FormatInt(b.ID, 10)
}

func newNotification(p Progress, level string) Notification {
	pct := uncappedPercent(p)
	var msg string
	if level == LevelExceeded {
		msg = fmt.Sprintf("You have exceeded your %s budget: $%.2f spent of $%.2f (%.0f%%).", p.Category, p.Spent, p.Amount, pct)
	} else {
		msg = fmt.Sprintf("You are approaching your %s budget: $%.2f spent of $%.2f (%.0f%%).", p.Category, p.Spent, p.Amount, pct)
	}
	return Notification{
		BudgetID:   p.ID,
		Category:   p.Category,
		Level:      level,
		Spent:      p.Spent,
		Budget:     p.Amount,
		Percentage: pct,
		Message:    msg,
	}
}
