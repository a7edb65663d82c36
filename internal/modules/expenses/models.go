// Package expenses records spending and summarizes it by month and category.
package expenses

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// Expense is one spending entry. Date is a calendar date (YYYY-MM-DD).
type Expense struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the writable part of an expense.
type Input struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// Validate trims the fields and checks amount, category and date.
func (in *Input) Validate() error {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Date = strings.TrimSpace(in.Date)

	if in.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseDate(in.Date); err != nil {
		return err
	}
	return nil
}

// Filter narrows a listing to an inclusive date range. Empty bounds are open.
type Filter struct {
	From     string
	To       string
	Category string
}

// CategoryTotal is the spend of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	Share    float64 `json:"share_percent"`
}

// MonthTotal is the spend of one calendar month (YYYY-MM).
type MonthTotal struct {
	Month      string             `json:"month"`
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	ByCategory map[string]float64 `json:"by_category"`
}

// Summary aggregates a set of expenses.
type Summary struct {
	Total         float64         `json:"total"`
	Count         int             `json:"count"`
	ByCategory    []CategoryTotal `json:"by_category"`
	ByMonth       []MonthTotal    `json:"by_month"`
	MonthlyMean   float64         `json:"monthly_mean"`
	MonthlyStdDev float64         `json:"monthly_std_dev"`
}
