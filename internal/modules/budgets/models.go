// Package budgets tracks spending limits per category and reports progress against them.
package budgets

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// Budget is a spending limit for one category over an inclusive date range.
type Budget struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input is the writable part of a budget.
type Input struct {
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// Validate trims the fields and checks amount, category and range.
func (in *Input) Validate() error {
	in.Category = strings.TrimSpace(in.Category)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)

	if in.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidInput)
	}
	start, err := domain.ParseDate(in.StartDate)
	if err != nil {
		return err
	}
	end, err := domain.ParseDate(in.EndDate)
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("%w: start_date must not be after end_date", domain.ErrInvalidInput)
	}
	return nil
}

// Progress is a budget with its spending status.
//
// ProgressPercentage is capped at 100 for display; the flags use the uncapped ratio,
// so IsExceeded and IsApproaching are never both true.
type Progress struct {
	Budget
	Spent              float64 `json:"spent"`
	Remaining          float64 `json:"remaining"`
	ProgressPercentage float64 `json:"progress_percentage"`
	IsExceeded         bool    `json:"is_exceeded"`
	IsApproaching      bool    `json:"is_approaching"`
}

// Level names used in notifications.
const (
	LevelApproaching = "approaching"
	LevelExceeded    = "exceeded"
)

// Notification is a one-shot warning about a budget crossing a threshold.
type Notification struct {
	BudgetID   int64   `json:"budget_id"`
	Category   string  `json:"category"`
	Level      string  `json:"level"`
	Spent      float64 `json:"spent"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
}
