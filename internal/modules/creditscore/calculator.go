package creditscore

import "math"

const (
	minScore = 300
	maxScore = 850

	weightPaymentHistory = 0.35
	weightUtilization    = 0.30
	weightCreditAge      = 0.15
	weightAccountMix     = 0.10
	weightInquiries      = 0.10

	creditAgeCapYears  = 25.0
	pointsPerInquiry   = 15.0
	maxRatioAdjustment = 50.0
)

var paymentHistoryPoints = map[PaymentHistory]float64{
	PaymentExcellent: 100,
	PaymentGood:      80,
	PaymentFair:      50,
	PaymentPoor:      20,
	PaymentVeryBad:   0,
}

var accountMixPoints = map[AccountDiversity]float64{
	DiversityDiverse:  100,
	DiversityModerate: 70,
	DiversityLimited:  40,
}

// Calculate maps a profile to a score in [300, 850]. It never fails: unknown enum
// values and out-of-range numbers degrade to worst-case points.
func Calculate(profile FinancialProfile) ScoreResult {
	p := profile.Normalize()

	f := FactorPoints{
		PaymentHistory: paymentHistoryPoints[p.PaymentHistory],
		Utilization:    100 - clamp(finiteOr(p.CreditUtilizationPercent, 100), 0, 100),
		CreditAge:      clamp(finiteOr(p.CreditAgeYears, 0)/creditAgeCapYears*100, 0, 100),
		AccountMix:     accountMixPoints[p.AccountTypeDiversity],
		Inquiries:      clamp(100-float64(p.RecentInquiries)*pointsPerInquiry, 0, 100),
	}

	f.WeightedSum = f.PaymentHistory*weightPaymentHistory +
		f.Utilization*weightUtilization +
		f.CreditAge*weightCreditAge +
		f.AccountMix*weightAccountMix +
		f.Inquiries*weightInquiries

	f.BalanceToIncome = balanceToIncome(p.TotalBalance, p.AnnualIncome)
	f.RatioAdjustment = clamp(50-f.BalanceToIncome*100, -maxRatioAdjustment, maxRatioAdjustment)

	raw := minScore + (maxScore-minScore)*(f.WeightedSum/100) + f.RatioAdjustment
	score := int(clamp(math.Round(raw), minScore, maxScore))

	return ScoreResult{
		Score:    score,
		Category: CategoryFor(score),
		Factors:  f,
	}
}

// CategoryFor returns the band for a score.
func CategoryFor(score int) Category {
	switch {
	case score >= 800:
		return CategoryExcellent
	case score >= 740:
		return CategoryVeryGood
	case score >= 670:
		return CategoryGood
	case score >= 580:
		return CategoryFair
	default:
		return CategoryPoor
	}
}

// balanceToIncome is 1.0 when income is not positive, the maximum penalty.
func balanceToIncome(balance, income float64) float64 {
	balance = finiteOr(balance, 0)
	income = finiteOr(income, 0)
	if income <= 0 {
		return 1.0
	}
	return math.Max(balance, 0) / income
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
