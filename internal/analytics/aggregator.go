// Package analytics turns flat transaction lists into the period, category
// and merchant summaries shown on the dashboard.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"aura/internal/core"
)

const (
	Uncategorized   = "Uncategorized"
	UnknownMerchant = "Unknown"
)

var hundred = decimal.NewFromInt(100)

// MonthlyData aggregates one calendar month.
type MonthlyData struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Period        string          `json:"period"`
	Income        decimal.Decimal `json:"income"`
	Expenses      decimal.Decimal `json:"expenses"`
	Net           decimal.Decimal `json:"net"`
	Transactions  int             `json:"transactions"`
	IncomeChange  float64         `json:"incomeChange"`
	ExpenseChange float64         `json:"expenseChange"`
}

// Share is an amount grouped under a name with its percentage of the
// period total.
type Share struct {
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   float64         `json:"percentage"`
	Transactions int             `json:"transactions"`
}

// Trends compares the latest month with the calendar month before it.
type Trends struct {
	Period         string  `json:"period"`
	PreviousPeriod string  `json:"previousPeriod"`
	IncomeChange   float64 `json:"incomeChange"`
	ExpenseChange  float64 `json:"expenseChange"`
	NetChange      float64 `json:"netChange"`
}

// Summary is the aggregated view of a filtered transaction list.
type Summary struct {
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	NetIncome         decimal.Decimal `json:"netIncome"`
	TransactionCount  int             `json:"transactionCount"`
	MonthlyData       []MonthlyData   `json:"monthlyData"`
	CategoryBreakdown []Share         `json:"categoryBreakdown"`
	MerchantBreakdown []Share         `json:"merchantBreakdown"`
	Trends            Trends          `json:"trends"`
}

// EmptySummary is the all-zero summary returned for an empty selection.
func EmptySummary() Summary {
	return Summary{
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		NetIncome:         decimal.Zero,
		MonthlyData:       []MonthlyData{},
		CategoryBreakdown: []Share{},
		MerchantBreakdown: []Share{},
	}
}

type monthKey struct {
	year  int
	month int
}

func (k monthKey) previous() monthKey {
	if k.month == 1 {
		return monthKey{year: k.year - 1, month: 12}
	}
	return monthKey{year: k.year, month: k.month - 1}
}

func (k monthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.year, k.month)
}

func (k monthKey) less(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

type bucket struct {
	name   string
	amount decimal.Decimal
	count  int
}

// Summarize filters txs and aggregates the selection.
//
// Income is the sum of positive amounts and expenses the sum of the
// magnitudes of negative amounts, so NetIncome == TotalIncome - TotalExpenses
// exactly. Transactions without an amount are ignored. Transactions without
// any date count towards the totals but not towards the monthly series.
func Summarize(txs []core.Transaction, f Filter) Summary {
	s := EmptySummary()

	months := map[monthKey]*MonthlyData{}
	categories := map[string]*bucket{}
	merchants := map[string]*bucket{}

	for _, tx := range txs {
		if !tx.Amount.Valid || tx.Amount.Decimal.IsZero() || !f.Match(tx) {
			continue
		}
		amt := tx.Amount.Decimal
		s.TransactionCount++

		var md *MonthlyData
		if d, ok := tx.EffectiveDate(); ok {
			k := monthKey{year: d.Year(), month: int(d.Month())}
			md = months[k]
			if md == nil {
				md = &MonthlyData{Year: k.year, Month: k.month, Period: k.String(),
					Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero}
				months[k] = md
			}
			md.Transactions++
		}

		if amt.IsPositive() {
			s.TotalIncome = s.TotalIncome.Add(amt)
			if md != nil {
				md.Income = md.Income.Add(amt)
			}
			continue
		}

		spent := amt.Neg()
		s.TotalExpenses = s.TotalExpenses.Add(spent)
		if md != nil {
			md.Expenses = md.Expenses.Add(spent)
		}
		addTo(categories, CategoryOf(tx), spent)
		addTo(merchants, MerchantOf(tx), spent)
	}

	s.NetIncome = s.TotalIncome.Sub(s.TotalExpenses)
	s.MonthlyData = monthlySeries(months)
	s.CategoryBreakdown = shares(categories, s.TotalExpenses)
	s.MerchantBreakdown = shares(merchants, s.TotalExpenses)
	s.Trends = trends(months)
	return s
}

// PercentChange returns (current - previous) / previous * 100 rounded to two
// decimals, or 0 when previous is zero.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

func addTo(groups map[string]*bucket, name string, amt decimal.Decimal) {
	key := strings.ToLower(name)
	b := groups[key]
	if b == nil {
		b = &bucket{name: name, amount: decimal.Zero}
		groups[key] = b
	}
	b.amount = b.amount.Add(amt)
	b.count++
}

func monthlySeries(months map[monthKey]*MonthlyData) []MonthlyData {
	keys := make([]monthKey, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]MonthlyData, 0, len(keys))
	for _, k := range keys {
		md := *months[k]
		md.Net = md.Income.Sub(md.Expenses)
		prevIncome, prevExpenses := decimal.Zero, decimal.Zero
		if prev, ok := months[k.previous()]; ok {
			prevIncome, prevExpenses = prev.Income, prev.Expenses
		}
		md.IncomeChange = PercentChange(md.Income, prevIncome)
		md.ExpenseChange = PercentChange(md.Expenses, prevExpenses)
		out = append(out, md)
	}
	return out
}

func shares(groups map[string]*bucket, total decimal.Decimal) []Share {
	out := make([]Share, 0, len(groups))
	for _, b := range groups {
		pct := 0.0
		if !total.IsZero() {
			pct = b.amount.Div(total).Mul(hundred).Round(2).InexactFloat64()
		}
		out = append(out, Share{Name: b.name, Amount: b.amount, Percentage: pct, Transactions: b.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func trends(months map[monthKey]*MonthlyData) Trends {
	var latest monthKey
	found := false
	for k := range months {
		if !found || latest.less(k) {
			latest, found = k, true
		}
	}
	if !found {
		return Trends{}
	}

	cur := months[latest]
	prevKey := latest.previous()
	prevIncome, prevExpenses := decimal.Zero, decimal.Zero
	if prev, ok := months[prevKey]; ok {
		prevIncome, prevExpenses = prev.Income, prev.Expenses
	}
	return Trends{
		Period:         latest.String(),
		PreviousPeriod: prevKey.String(),
		IncomeChange:   PercentChange(cur.Income, prevIncome),
		ExpenseChange:  PercentChange(cur.Expenses, prevExpenses),
		NetChange:      PercentChange(cur.Income.Sub(cur.Expenses), prevIncome.Sub(prevExpenses)),
	}
}
