package settings

import (
	"fmt"
	"sort"
	"strconv"
)

// Setting keys
const (
	KeyBudgetApproachingPercent = "budget_approaching_percent"
	KeyBudgetExceededPercent    = "budget_exceeded_percent"
	KeyStartingCash             = "starting_cash"
)

// Definition describes one user setting: its default and accepted range.
type Definition struct {
	Key         string  `json:"key"`
	Default     float64 `json:"default"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
}

// Definitions holds every configurable per-user setting.
var Definitions = map[string]Definition{
	KeyBudgetApproachingPercent: {
		Key:         KeyBudgetApproachingPercent,
		Default:     85,
		Min:         1,
		Max:         100,
		Description: "Spending percentage at which a budget is reported as approaching its limit",
	},
	KeyBudgetExceededPercent: {
		Key:         KeyBudgetExceededPercent,
		Default:     100,
		Min:         1,
		Max:         1000,
		Description: "Spending percentage above which a budget is reported as exceeded",
	},
	KeyStartingCash: {
		Key:         KeyStartingCash,
		Default:     100000,
		Min:         0,
		Max:         1e9,
		Description: "Virtual cash the paper-trading portfolio starts with",
	},
}

// Keys returns the known setting keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(Definitions))
	for k := range Definitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Thresholds are the budget notification levels, in percent of the budget amount.
type Thresholds struct {
	ApproachingPercent float64 `json:"approaching_percent"`
	ExceededPercent    float64 `json:"exceeded_percent"`
}

// DefaultThresholds returns the 85/100 defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ApproachingPercent: Definitions[KeyBudgetApproachingPercent].Default,
		ExceededPercent:    Definitions[KeyBudgetExceededPercent].Default,
	}
}

// ValidateValue parses value for key and checks it against the definition.
func ValidateValue(key, value string) (float64, error) {
	def, ok := Definitions[key]
	if !ok {
		return 0, fmt.Errorf("unknown setting %q", key)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s must be a number", key)
	}
	if v < def.Min || v > def.Max {
		return 0, fmt.Errorf("setting %s must be between %g and %g", key, def.Min, def.Max)
	}
	return v, nil
}
