package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Suggestion kinds.
const (
	KindReduceCategory  = "reduce-category"
	KindMerchant        = "merchant-concentration"
	KindIncreaseSavings = "increase-savings"
	KindSpendingSpike   = "spending-spike"
	KindNoIncome        = "no-income"
	KindOnTrack         = "on-track"
)

// Suggestion is a single rule-based recommendation shown by the
// suggestions widget.
type Suggestion struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// Insights holds the derived financial-health figures for a summary.
type Insights struct {
	HealthScore            int             `json:"healthScore"`
	Grade                  string          `json:"grade"`
	SavingsRate            float64         `json:"savingsRate"`
	AverageMonthlyExpenses decimal.Decimal `json:"averageMonthlyExpenses"`
	Suggestions            []Suggestion    `json:"suggestions"`
}

// Thresholds used by the suggestion rules, in percent.
const (
	categoryShareLimit = 40
	merchantShareLimit = 25
	minSavingsRate     = 10
	spikeLimit         = 15
)

// SavingsRate returns net income as a percentage of income, 0 without income.
func SavingsRate(s Summary) float64 {
	if s.TotalIncome.IsZero() {
		return 0
	}
	return s.NetIncome.Div(s.TotalIncome).Mul(hundred).Round(2).InexactFloat64()
}

// HealthScore maps a summary to 0..100. Half of the score comes from the
// savings rate, the expense trend moves it by up to ten points.
func HealthScore(s Summary) int {
	if s.TransactionCount == 0 {
		return 0
	}
	if s.TotalIncome.IsZero() {
		return 10
	}
	score := 50 + clamp(SavingsRate(s), -50, 50)
	switch {
	case s.Trends.ExpenseChange > 10:
		score -= 10
	case s.Trends.ExpenseChange < -10:
		score += 10
	}
	return int(math.Round(clamp(score, 0, 100)))
}

// Grade labels a health score.
func Grade(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}

// BuildInsights derives the health score and suggestions from a summary.
// Suggestions are sorted by priority, highest first.
func BuildInsights(s Summary) Insights {
	score := HealthScore(s)
	in := Insights{
		HealthScore:            score,
		Grade:                  Grade(score),
		SavingsRate:            SavingsRate(s),
		AverageMonthlyExpenses: AverageMonthlyExpenses(s),
		Suggestions:            []Suggestion{},
	}
	if s.TransactionCount == 0 {
		return in
	}

	if s.TotalIncome.IsZero() && s.TotalExpenses.IsPositive() {
		in.Suggestions = append(in.Suggestions, Suggestion{
			Kind:     KindNoIncome,
			Title:    "No income recorded",
			Message:  fmt.Sprintf("You spent %s with no income in this period.", s.TotalExpenses.StringFixed(2)),
			Priority: 3,
		})
	} else if in.SavingsRate < minSavingsRate {
		in.Suggestions = append(in.Suggestions, Suggestion{
			Kind:     KindIncreaseSavings,
			Title:    "Save more",
			Message:  fmt.Sprintf("Your savings rate is %.2f%%. Aim for at least %d%%.", in.SavingsRate, minSavingsRate),
			Priority: 3,
		})
	}

	if s.Trends.ExpenseChange > spikeLimit {
		in.Suggestions = append(in.Suggestions, Suggestion{
			Kind:     KindSpendingSpike,
			Title:    "Spending is up",
			Message:  fmt.Sprintf("Expenses in %s grew %.2f%% compared to %s.", s.Trends.Period, s.Trends.ExpenseChange, s.Trends.PreviousPeriod),
			Priority: 2,
		})
	}

	if top, ok := first(s.CategoryBreakdown); ok && top.Percentage > categoryShareLimit {
		in.Suggestions = append(in.Suggestions, Suggestion{
			Kind:     KindReduceCategory,
			Title:    "Review " + top.Name,
			Message:  fmt.Sprintf("%s takes %.2f%% of your expenses (%s).", top.Name, top.Percentage, top.Amount.StringFixed(2)),
			Priority: 2,
		})
	}

	if top, ok := first(s.MerchantBreakdown); ok && top.Percentage > merchantShareLimit && len(s.MerchantBreakdown) > 1 {
		in.Suggestions = append(in.Suggestions, Suggestion{
			Kind:     KindMerchant,
			Title:    "Frequent merchant",
			Message:  fmt.Sprintf("%s accounts for %.2f%% of your spending across %d transactions.", top.Name, top.Percentage, top.Transactions),
			Priority: 1,
		})
	}

	if len(in.Suggestions) == 0 {
		in.Suggestions = append(in.Suggestions, Suggestion{
			Kind:     KindOnTrack,
			Title:    "On track",
			Message:  fmt.Sprintf("You kept %s of your income this period.", s.NetIncome.StringFixed(2)),
			Priority: 0,
		})
	}

	sortSuggestions(in.Suggestions)
	return in
}

func first(shares []Share) (Share, bool) {
	if len(shares) == 0 {
		return Share{}, false
	}
	return shares[0], true
}

func sortSuggestions(s []Suggestion) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Priority > s[j].Priority })
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// AverageMonthlyExpenses returns the mean of the monthly expense totals.
func AverageMonthlyExpenses(s Summary) decimal.Decimal {
	if len(s.MonthlyData) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, m := range s.MonthlyData {
		total = total.Add(m.Expenses)
	}
	return total.Div(decimal.NewFromInt(int64(len(s.MonthlyData)))).Round(2)
}
