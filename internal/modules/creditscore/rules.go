package creditscore

import (
	"fmt"
	"math"
	"strconv"
)

const (
	minRecommendations = 3
	maxRecommendations = 4

	utilizationTarget  = 30.0
	creditAgeTarget    = 5.0
	maxRecentInquiries = 2
	debtToIncomeTarget = 30.0
)

// genericRecommendation pads short lists. Its text never varies.
var genericRecommendation = Recommendation{
	Title:    "Review your credit report for errors",
	Impact:   "Your profile looks healthy. Pull your reports from all three bureaus and dispute any inaccurate late payments, balances or accounts you don't recognize.",
	Timeline: "Corrections usually show up within 30-45 days",
}

// RuleRecommendations builds 3-4 recommendations from a fixed rule table.
//
// Checks run in a fixed order and every matching check contributes, so index 0 is
// always the payment-history tip when that check fires. Lists shorter than three get
// the generic tip appended; the result is cut to the first four.
func RuleRecommendations(profile FinancialProfile, _ ScoreResult) []Recommendation {
	p := profile.Normalize()
	recs := make([]Recommendation, 0, 7)

	if p.PaymentHistory != PaymentExcellent {
		recs = append(recs, Recommendation{
			Title:    "Automate your payments",
			Impact:   "Payment history is the largest part of your score. Set up autopay for at least the minimum due on every account so a busy month never turns into a late payment.",
			Timeline: "Noticeable after 6-12 months of on-time payments",
		})
	}

	if p.CreditUtilizationPercent > utilizationTarget {
		recs = append(recs, Recommendation{
			Title: "Reduce credit utilization below 30%",
			Impact: fmt.Sprintf(
				"Your utilization is %s%%. Paying balances down below 30%% typically improves your score by 20-40 points.",
				formatNumber(p.CreditUtilizationPercent)),
			Timeline: "1-2 billing cycles after balances are reported",
		})
	}

	if p.CreditAgeYears < creditAgeTarget {
		recs = append(recs, Recommendation{
			Title: "Keep your oldest accounts open",
			Impact: fmt.Sprintf(
				"Your credit history is %s years old. Closing old cards shortens it, so keep them open and use them lightly.",
				formatNumber(p.CreditAgeYears)),
			Timeline: "Improves gradually as your accounts age",
		})
	}

	if p.AccountTypeDiversity != DiversityDiverse {
		recs = append(recs, Recommendation{
			Title:    "Diversify your account types",
			Impact:   "Lenders like to see both revolving credit (cards) and installment loans handled well. Only add an account type when you actually need it.",
			Timeline: "6-12 months",
		})
	}

	if p.RecentInquiries > maxRecentInquiries {
		recs = append(recs, Recommendation{
			Title: "Pause new credit applications",
			Impact: fmt.Sprintf(
				"You have %d recent hard inquiries. Each one can cost a few points; hold off on new applications until they age.",
				p.RecentInquiries),
			Timeline: "Inquiries stop counting after 12 months",
		})
	}

	if dti := DebtToIncomePercent(p.TotalBalance, p.AnnualIncome); dti > debtToIncomeTarget {
		recs = append(recs, Recommendation{
			Title: "Create a debt-reduction plan",
			Impact: fmt.Sprintf(
				"Your debt-to-income ratio is %d%%. Pay down the highest-interest balances first and aim to get below 30%%.",
				int(math.Round(dti))),
			Timeline: "6-24 months depending on balance",
		})
	}

	if len(recs) < minRecommendations {
		recs = append(recs, genericRecommendation)
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// DebtToIncomePercent is balance/income*100; a non-positive income counts as 100%.
func DebtToIncomePercent(balance, income float64) float64 {
	return balanceToIncome(balance, income) * 100
}

// formatNumber prints 85 as "85" and 2.5 as "2.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
