package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *Command
	}{
		{"shares of", "buy 5 shares of AAPL", &Command{Side: SideBuy, Symbol: "AAPL", Quantity: 5}},
		{"bare quantity", "sell 10 TSLA", &Command{Side: SideSell, Symbol: "TSLA", Quantity: 10}},
		{"purchase with stock suffix", "purchase 3 msft stock", &Command{Side: SideBuy, Symbol: "MSFT", Quantity: 3}},
		{"no quantity means one", "buy AAPL", &Command{Side: SideBuy, Symbol: "AAPL", Quantity: 1}},
		{"sell all", "sell all NVDA", &Command{Side: SideSell, Symbol: "NVDA", All: true}},
		{"mixed case and spacing", "  BuY   2   Shares   GOOG  ", &Command{Side: SideBuy, Symbol: "GOOG", Quantity: 2}},
		{"fractional", "buy 0.5 shares of brk.b", &Command{Side: SideBuy, Symbol: "BRK.B", Quantity: 0.5}},
		{"dollar prefix", "sell 1 $amd", &Command{Side: SideSell, Symbol: "AMD", Quantity: 1}},
		{"trailing period", "buy 1 share of AAPL.", &Command{Side: SideBuy, Symbol: "AAPL", Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"unknown verb", "hold 5 AAPL"},
		{"missing symbol", "buy 5 shares"},
		{"zero quantity", "buy 0 AAPL"},
		{"buy all", "buy all AAPL"},
		{"negative quantity", "sell -3 AAPL"},
		{"chatter", "what should I buy today?"},
		{"two symbols", "buy 5 AAPL MSFT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.text)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}
