package alphavantage

import (
	"errors"
	"fmt"

	"github.com/smasshh/finmate/internal/domain"
)

// ErrRateLimitExceeded is returned when either the local daily budget is spent or the
// API answered with a rate-limit notice inside an HTTP 200 payload.
type ErrRateLimitExceeded struct {
	Message string
}

func (e ErrRateLimitExceeded) Error() string {
	if e.Message == "" {
		return "alpha vantage rate limit exceeded"
	}
	return fmt.Sprintf("alpha vantage rate limit exceeded: %s", e.Message)
}

// Is lets callers match with errors.Is(err, domain.ErrRateLimited).
func (e ErrRateLimitExceeded) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// ErrAPI is an "Error Message" (or other non rate-limit notice) returned in a 200 payload.
type ErrAPI struct {
	Message string
}

func (e ErrAPI) Error() string {
	return fmt.Sprintf("alpha vantage api error: %s", e.Message)
}

// Is lets callers match with errors.Is(err, domain.ErrUnavailable).
func (e ErrAPI) Is(target error) bool {
	return target == domain.ErrUnavailable
}

// errNoData marks an otherwise well-formed payload with nothing in it.
var errNoData = errors.New("no data in response")
