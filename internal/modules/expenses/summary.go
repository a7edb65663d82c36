package expenses

import (
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Summarize groups expenses by category and by month. Totals are summed as decimals
// and rounded to cents. Months without expenses are not included in the mean.
func Summarize(expenses []Expense) Summary {
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	categoryCount := make(map[string]int)
	byMonth := make(map[string]decimal.Decimal)
	monthCount := make(map[string]int)
	monthCategory := make(map[string]map[string]decimal.Decimal)

	for _, e := range expenses {
		amount := decimal.NewFromFloat(e.Amount)
		month := monthOf(e.Date)

		total = total.Add(amount)
		byCategory[e.Category] = byCategory[e.Category].Add(amount)
		categoryCount[e.Category]++
		byMonth[month] = byMonth[month].Add(amount)
		monthCount[month]++
		if monthCategory[month] == nil {
			monthCategory[month] = make(map[string]decimal.Decimal)
		}
		monthCategory[month][e.Category] = monthCategory[month][e.Category].Add(amount)
	}

	summary := Summary{
		Total:      toCents(total),
		Count:      len(expenses),
		ByCategory: make([]CategoryTotal, 0, len(byCategory)),
		ByMonth:    make([]MonthTotal, 0, len(byMonth)),
	}

	for category, sum := range byCategory {
		share := 0.0
		if total.IsPositive() {
			share, _ = sum.Div(total).Mul(decimal.NewFromInt(100)).Round(1).Float64()
		}
		summary.ByCategory = append(summary.ByCategory, CategoryTotal{
			Category: category,
			Total:    toCents(sum),
			Count:    categoryCount[category],
			Share:    share,
		})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		if summary.ByCategory[i].Total != summary.ByCategory[j].Total {
			return summary.ByCategory[i].Total > summary.ByCategory[j].Total
		}
		return summary.ByCategory[i].Category < summary.ByCategory[j].Category
	})

	monthlyTotals := make([]float64, 0, len(byMonth))
	for month, sum := range byMonth {
		cats := make(map[string]float64, len(monthCategory[month]))
		for c, v := range monthCategory[month] {
			cats[c] = toCents(v)
		}
		summary.ByMonth = append(summary.ByMonth, MonthTotal{
			Month:      month,
			Total:      toCents(sum),
			Count:      monthCount[month],
			ByCategory: cats,
		})
	}
	sort.Slice(summary.ByMonth, func(i, j int) bool {
		return summary.ByMonth[i].Month < summary.ByMonth[j].Month
	})
	for _, m := range summary.ByMonth {
		monthlyTotals = append(monthlyTotals, m.Total)
	}

	if len(monthlyTotals) > 0 {
		mean, std := stat.MeanStdDev(monthlyTotals, nil)
		summary.MonthlyMean = roundCents(mean)
		if len(monthlyTotals) > 1 {
			summary.MonthlyStdDev = roundCents(std)
		}
	}

	return summary
}

// monthOf returns the YYYY-MM prefix of a YYYY-MM-DD date.
func monthOf(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

func toCents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func roundCents(f float64) float64 {
	return toCents(decimal.NewFromFloat(f))
}
