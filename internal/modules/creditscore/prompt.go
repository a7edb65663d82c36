package creditscore

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the text-generation prompt for a profile and its score.
func BuildPrompt(profile FinancialProfile, result ScoreResult) string {
	p := profile.Normalize()

	var b strings.Builder
	b.WriteString("Analyze this credit profile and suggest how to improve the score.\n\n")
	b.WriteString("PROFILE:\n")
	fmt.Fprintf(&b, "- Payment history: %s\n", valueOr(string(p.PaymentHistory), "unknown"))
	fmt.Fprintf(&b, "- Credit utilization: %s%%\n", formatNumber(p.CreditUtilizationPercent))
	fmt.Fprintf(&b, "- Credit age: %s years\n", formatNumber(p.CreditAgeYears))
	fmt.Fprintf(&b, "- Account type diversity: %s\n", valueOr(string(p.AccountTypeDiversity), "unknown"))
	fmt.Fprintf(&b, "- Recent hard inquiries: %d\n", p.RecentInquiries)
	fmt.Fprintf(&b, "- Total balance: $%.2f\n", p.TotalBalance)
	fmt.Fprintf(&b, "- Annual income: $%.2f\n", p.AnnualIncome)
	fmt.Fprintf(&b, "\nESTIMATED SCORE: %d (%s)\n\n", result.Score, result.Category)
	b.WriteString("Return 3 or 4 recommendations, most impactful first, each exactly in this format:\n")
	b.WriteString("- TITLE: <short imperative title>\n")
	b.WriteString("- IMPACT: <why it matters, citing the numbers above>\n")
	b.WriteString("- TIMELINE: <when results can be expected>\n")
	b.WriteString("\nDo not add any other text.")
	return b.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
