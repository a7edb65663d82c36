package trading

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCommand is returned when a trade command cannot be understood.
var ErrInvalidCommand = errors.New("invalid trade command")

// CommandHelp lists the phrasings ParseCommand understands.
const CommandHelp = `Try one of:
  buy 5 shares of AAPL
  sell 10 TSLA
  purchase 3 msft stock
  buy AAPL            (buys 1 share)
  sell all NVDA       (sells the whole position)`

var commandPattern = regexp.MustCompile(
	`(?i)^\s*(buy|purchase|sell)\s+(?:(all|\d+(?:\.\d+)?)\s+)?(?:shares?\s+(?:of\s+)?)?\$?([a-z][a-z0-9.\-]{0,9})(?:\s+(?:stocks?|shares?))?\s*[.!]?\s*$`,
)

// words that the pattern can capture as a symbol but never are one
var reservedWords = map[string]bool{
	"ALL":      true,
	"OF":       true,
	"SHARE":    true,
	"SHARES":   true,
	"STOCK":    true,
	"STOCKS":   true,
	"BUY":      true,
	"SELL":     true,
	"PURCHASE": true,
}

// Command is a parsed natural-language trade instruction.
type Command struct {
	Side     Side    `json:"side"`
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	// All means sell the entire position; Quantity is 0 until resolved.
	All bool `json:"all"`
}

// ParseCommand turns text such as "buy 5 shares of AAPL" into a Command.
// A missing quantity means one share.
func ParseCommand(text string) (*Command, error) {
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: could not understand %q", ErrInvalidCommand, strings.TrimSpace(text))
	}

	cmd := &Command{Side: SideBuy, Quantity: 1}
	if strings.EqualFold(m[1], "sell") {
		cmd.Side = SideSell
	}

	symbol := strings.ToUpper(strings.TrimRight(m[3], ".-"))
	if symbol == "" || reservedWords[symbol] {
		return nil, fmt.Errorf("%w: missing symbol", ErrInvalidCommand)
	}
	cmd.Symbol = symbol

	switch qty := strings.ToLower(m[2]); qty {
	case "":
	case "all":
		if cmd.Side != SideSell {
			return nil, fmt.Errorf("%w: \"all\" only works when selling", ErrInvalidCommand)
		}
		cmd.All = true
		cmd.Quantity = 0
	default:
		n, err := strconv.ParseFloat(qty, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidCommand)
		}
		cmd.Quantity = n
	}

	return cmd, nil
}
