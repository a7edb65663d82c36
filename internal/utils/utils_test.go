package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single value", "trade_executed", []string{"trade_executed"}},
		{"varied spacing", "http://a.test,  http://b.test ", []string{"http://a.test", "http://b.test"}},
		{"trailing comma", "localhost:9092,", []string{"localhost:9092"}},
		{"only spaces", "   ", nil},
		{"comma only", ",", nil},
		{"multiple commas", ",,SPY,,QQQ,,", []string{"SPY", "QQQ"}},
		{"internal spaces preserved", "Food & Dining, Health Care", []string{"Food & Dining", "Health Care"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCSV(tt.input))
		})
	}
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := OperationTimer("quick", time.Hour, log)
	d := done()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"operation":"quick"`)

	buf.Reset()
	slow := OperationTimer("slow", time.Nanosecond, log)
	time.Sleep(time.Millisecond)
	slow()
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Slow operation detected")
}
