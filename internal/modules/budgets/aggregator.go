package budgets

import (
	"github.com/shopspring/decimal"

	"github.com/smasshh/finmate/internal/modules/expenses"
	"github.com/smasshh/finmate/internal/modules/settings"
)

var hundred = decimal.NewFromInt(100)

// ComputeProgress matches expenses to each budget by category and inclusive date range.
//
// A budget with a non-positive amount reports 0% and no flags.
func ComputeProgress(budgetList []Budget, expenseList []expenses.Expense, th settings.Thresholds) []Progress {
	approaching := decimal.NewFromFloat(th.ApproachingPercent)
	exceeded := decimal.NewFromFloat(th.ExceededPercent)

	out := make([]Progress, 0, len(budgetList))
	for _, b := range budgetList {
		spent := decimal.Zero
		for _, e := range expenseList {
			if e.Category == b.Category && e.Date >= b.StartDate && e.Date <= b.EndDate {
				spent = spent.Add(decimal.NewFromFloat(e.Amount))
			}
		}

		amount := decimal.NewFromFloat(b.Amount)
		p := Progress{
			Budget:    b,
			Spent:     cents(spent),
			Remaining: cents(decimal.Max(amount.Sub(spent), decimal.Zero)),
		}

		if amount.IsPositive() {
			ratio := spent.Div(amount).Mul(hundred)
			p.ProgressPercentage = cents(decimal.Min(ratio, hundred))
			p.IsExceeded = ratio.GreaterThan(exceeded)
			p.IsApproaching = ratio.GreaterThan(approaching) && ratio.LessThanOrEqual(exceeded)
		}

		out = append(out, p)
	}
	return out
}

// uncappedPercent recomputes the ratio behind a Progress for notification messages.
func uncappedPercent(p Progress) float64 {
	amount := decimal.NewFromFloat(p.Amount)
	if !amount.IsPositive() {
		return 0
	}
	return cents(decimal.NewFromFloat(p.Spent).Div(amount).Mul(hundred))
}

func cents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
