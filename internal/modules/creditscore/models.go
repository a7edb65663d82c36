// Package creditscore estimates a credit score from a financial profile and explains
// how to improve it.
package creditscore

import (
	"strings"
	"time"
)

// PaymentHistory is the self-reported payment-history bucket.
type PaymentHistory string

const (
	PaymentExcellent PaymentHistory = "excellent"
	PaymentGood      PaymentHistory = "good"
	PaymentFair      PaymentHistory = "fair"
	PaymentPoor      PaymentHistory = "poor"
	PaymentVeryBad   PaymentHistory = "verybad"
)

// AccountDiversity describes the mix of credit account types.
type AccountDiversity string

const (
	DiversityDiverse  AccountDiversity = "diverse"
	DiversityModerate AccountDiversity = "moderate"
	DiversityLimited  AccountDiversity = "limited"
)

// Category is the score band label.
type Category string

const (
	CategoryPoor      Category = "Poor"
	CategoryFair      Category = "Fair"
	CategoryGood      Category = "Good"
	CategoryVeryGood  Category = "Very Good"
	CategoryExcellent Category = "Excellent"
)

// RecommendationSource tells whether recommendations came from the text generator or the rule table.
type RecommendationSource string

const (
	SourceAI    RecommendationSource = "ai"
	SourceRules RecommendationSource = "rules"
)

// FinancialProfile is the input of one estimation. Numeric fields are not clamped on input.
type FinancialProfile struct {
	PaymentHistory           PaymentHistory   `json:"payment_history"`
	CreditUtilizationPercent float64          `json:"credit_utilization_percent"`
	CreditAgeYears           float64          `json:"credit_age_years"`
	AccountTypeDiversity     AccountDiversity `json:"account_type_diversity"`
	RecentInquiries          int              `json:"recent_inquiries"`
	TotalBalance             float64          `json:"total_balance"`
	AnnualIncome             float64          `json:"annual_income"`
}

// Normalize lower-cases and trims the enum fields so "Excellent " matches "excellent".
func (p FinancialProfile) Normalize() FinancialProfile {
	p.PaymentHistory = PaymentHistory(strings.ToLower(strings.TrimSpace(string(p.PaymentHistory))))
	p.AccountTypeDiversity = AccountDiversity(strings.ToLower(strings.TrimSpace(string(p.AccountTypeDiversity))))
	return p
}

// FactorPoints holds the 0-100 points of each weighted factor.
type FactorPoints struct {
	PaymentHistory  float64 `json:"payment_history"`
	Utilization     float64 `json:"utilization"`
	CreditAge       float64 `json:"credit_age"`
	AccountMix      float64 `json:"account_mix"`
	Inquiries       float64 `json:"inquiries"`
	WeightedSum     float64 `json:"weighted_sum"`
	BalanceToIncome float64 `json:"balance_to_income"`
	RatioAdjustment float64 `json:"ratio_adjustment"`
}

// ScoreResult is derived from a profile on every call and never cached.
// Category is always CategoryFor(Score).
type ScoreResult struct {
	Score    int          `json:"score"`
	Category Category     `json:"category"`
	Factors  FactorPoints `json:"factors"`
}

// Recommendation is one improvement tip. Lists are ordered, most relevant check first.
type Recommendation struct {
	Title    string `json:"title"`
	Impact   string `json:"impact"`
	Timeline string `json:"timeline"`
}

// Record is one persisted estimation. Records are never updated.
type Record struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Profile         FinancialProfile     `json:"profile"`
	Score           int                  `json:"score"`
	Category        Category             `json:"category"`
	Recommendations []Recommendation     `json:"recommendations"`
	Source          RecommendationSource `json:"recommendation_source"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Estimate is the outcome of one estimation request. When persistence fails the
// computed result is still returned with Saved=false.
type Estimate struct {
	ID              string               `json:"id,omitempty"`
	Result          ScoreResult          `json:"result"`
	Recommendations []Recommendation     `json:"recommendations"`
	Source          RecommendationSource `json:"recommendation_source"`
	Saved           bool                 `json:"saved"`
	SaveError       string               `json:"save_error,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}
