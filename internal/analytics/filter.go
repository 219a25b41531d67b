package analytics

import (
	"sort"
	"strings"
	"time"

	"aura/internal/core"
)

// Filter selects the transactions that take part in a summary. Zero-valued
// fields match everything; all set fields must match (conjunction).
type Filter struct {
	From       time.Time `json:"from,omitempty"`
	To         time.Time `json:"to,omitempty"`
	BankIDs    []string  `json:"bankIds,omitempty"`
	Categories []string  `json:"categories,omitempty"`
}

// Match reports whether tx passes every predicate of the filter.
// Date bounds are inclusive and compared at day granularity.
func (f Filter) Match(tx core.Transaction) bool {
	if !f.From.IsZero() || !f.To.IsZero() {
		d, ok := tx.EffectiveDate()
		if !ok {
			return false
		}
		day := core.Day(d)
		if !f.From.IsZero() && day.Before(core.Day(f.From)) {
			return false
		}
		if !f.To.IsZero() && day.After(core.Day(f.To)) {
			return false
		}
	}
	if len(f.BankIDs) > 0 && !contains(f.BankIDs, tx.BankID, false) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, CategoryOf(tx), true) {
		return false
	}
	return true
}

// Key returns a stable string form of the filter, usable as a cache key.
func (f Filter) Key() string {
	var b strings.Builder
	if !f.From.IsZero() {
		b.WriteString(core.Day(f.From).Format("2006-01-02"))
	}
	b.WriteByte('|')
	if !f.To.IsZero() {
		b.WriteString(core.Day(f.To).Format("2006-01-02"))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(sortedCopy(f.BankIDs), ","))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.Join(sortedCopy(f.Categories), ",")))
	return b.String()
}

// CategoryOf returns the category label used for grouping a transaction.
func CategoryOf(tx core.Transaction) string {
	if c := strings.TrimSpace(tx.Type); c != "" {
		return c
	}
	return Uncategorized
}

// MerchantOf returns the merchant label used for grouping a transaction.
func MerchantOf(tx core.Transaction) string {
	if m := strings.Join(strings.Fields(tx.Description), " "); m != "" {
		return m
	}
	return UnknownMerchant
}

func contains(list []string, v string, fold bool) bool {
	for _, item := range list {
		if item == v || (fold && strings.EqualFold(item, v)) {
			return true
		}
	}
	return false
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
