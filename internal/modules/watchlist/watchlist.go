// Package watchlist keeps the symbols a user follows and prices them on demand.
package watchlist

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// NormalizeSymbol upper-cases a ticker and checks its shape.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: invalid symbol %q", domain.ErrInvalidInput, symbol)
	}
	return s, nil
}

// Entry is one watched symbol.
type Entry struct {
	ID      int64     `json:"id"`
	UserID  string    `json:"user_id"`
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}

// QuotedEntry is an entry with its latest quote. Unavailable is set, and Quote is nil,
// when the quote could not be fetched.
type QuotedEntry struct {
	Entry
	Quote       *domain.Quote `json:"quote,omitempty"`
	Unavailable bool          `json:"unavailable"`
	Error       string        `json:"error,omitempty"`
}
