package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrBreakerOpen is returned without calling the API while the breaker is open.
var ErrBreakerOpen = errors.New("text generation circuit breaker is open")

// Breaker fast-fails calls after maxFailures consecutive failures and lets a single
// trial call through once resetTimeout has elapsed.
type Breaker struct {
	maxFailures  int
	resetTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(maxFailures int, resetTimeout time.Duration, log zerolog.Logger) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		log:          log.With().Str("component", "llm_breaker").Logger(),
		now:          time.Now,
	}
}

// Execute runs op unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}

	err := op(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// The caller gave up; that says nothing about the API.
			b.onAbandon()
			return err
		}
		b.onFailure(err)
		return err
	}
	b.onSuccess()
	return nil
}

// State returns the current state, moving open to half-open once the reset timeout passed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return false
		}
		b.state = StateHalfOpen
		b.log.Info().Msg("Breaker half-open, allowing trial call")
		return true
	case StateHalfOpen:
		// One trial call at a time.
		return false
	default:
		return true
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateClosed {
		b.log.Info().Str("from", b.state.String()).Msg("Breaker closed")
	}
	b.state = StateClosed
	b.failures = 0
}

// onAbandon releases a half-open trial slot without counting a failure.
func (b *Breaker) onAbandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.state = StateOpen
	}
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = b.now()
		b.log.Warn().Err(err).Int("failures", b.failures).Msg("Breaker opened")
	}
}
