// Package bills schedules recurring bills on the calendar.
//
// Each frequency has its own Recurrence strategy. Occurrences are always
// computed from the bill's start date, so a bill starting on the 31st falls
// on the last day of shorter months and returns to the 31st afterwards.
package bills

import (
	"fmt"
	"time"

	"aura/internal/core"
)

// Recurrence is the strategy interface for one frequency.
type Recurrence interface {
	// Occurrence returns the n-th (0-based) occurrence of a schedule
	// starting at start. ok is false when the schedule has no n-th
	// occurrence.
	Occurrence(start time.Time, n int) (t time.Time, ok bool)
	// Skip returns an index whose occurrence is not after from. Callers
	// iterate forward from it instead of from zero.
	Skip(start, from time.Time) int
}

type OnceRecurrence struct{}

func (OnceRecurrence) Occurrence(start time.Time, n int) (time.Time, bool) {
	return start, n == 0
}

func (OnceRecurrence) Skip(time.Time, time.Time) int { return 0 }

// DailyRecurrence repeats every day.
type DailyRecurrence struct{}

func (DailyRecurrence) Occurrence(start time.Time, n int) (time.Time, bool) {
	return start.AddDate(0, 0, n), true
}

func (DailyRecurrence) Skip(start, from time.Time) int {
	return daysBetween(start, from)
}

// WeeklyRecurrence repeats on the start date's weekday.
type WeeklyRecurrence struct{}

func (WeeklyRecurrence) Occurrence(start time.Time, n int) (time.Time, bool) {
	return start.AddDate(0, 0, 7*n), true
}

func (WeeklyRecurrence) Skip(start, from time.Time) int {
	return daysBetween(start, from) / 7
}

// MonthlyRecurrence repeats on the start date's day of month, clamped to
// the last day of shorter months.
type MonthlyRecurrence struct{}

func (MonthlyRecurrence) Occurrence(start time.Time, n int) (time.Time, bool) {
	return addMonthsClamped(start, n), true
}

func (MonthlyRecurrence) Skip(start, from time.Time) int {
	return monthsBetween(start, from) - 1
}

// YearlyRecurrence repeats on the start date's month and day. February 29
// falls on February 28 in common years.
type YearlyRecurrence struct{}

func (YearlyRecurrence) Occurrence(start time.Time, n int) (time.Time, bool) {
	return addMonthsClamped(start, 12*n), true
}

func (YearlyRecurrence) Skip(start, from time.Time) int {
	return monthsBetween(start, from)/12 - 1
}

var recurrences = map[core.Frequency]Recurrence{
	core.Once:    OnceRecurrence{},
	core.Daily:   DailyRecurrence{},
	core.Weekly:  WeeklyRecurrence{},
	core.Monthly: MonthlyRecurrence{},
	core.Yearly:  YearlyRecurrence{},
}

// GetRecurrence returns the strategy for a frequency.
func GetRecurrence(f core.Frequency) (Recurrence, error) {
	r, ok := recurrences[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, f)
	}
	return r, nil
}

// Occurrences returns the bill's due dates within [from, to], both
// inclusive at day granularity, honouring the bill's end date.
func Occurrences(b core.Bill, from, to time.Time) ([]time.Time, error) {
	r, err := GetRecurrence(b.Every)
	if err != nil {
		return nil, err
	}
	start := core.Day(b.StartDate)
	from, to = core.Day(from), core.Day(to)
	if b.EndDate != nil && core.Day(*b.EndDate).Before(to) {
		to = core.Day(*b.EndDate)
	}
	if to.Before(from) || to.Before(start) {
		return nil, nil
	}

	var out []time.Time
	for n := max(r.Skip(start, from), 0); ; n++ {
		occ, ok := r.Occurrence(start, n)
		if !ok || occ.After(to) {
			break
		}
		if !occ.Before(from) {
			out = append(out, occ)
		}
	}
	return out, nil
}

// addMonthsClamped moves t by n months keeping its day, clamped to the
// last day of the target month.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, last), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(core.Day(b).Sub(core.Day(a)).Hours() / 24)
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
