package bills

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"aura/internal/core"
)

// Status of a single bill occurrence.
type Status string

const (
	StatusPaid     Status = "paid"
	StatusDue      Status = "due"
	StatusOverdue  Status = "overdue"
	StatusUpcoming Status = "upcoming"
)

// ErrNothingDue is returned when paying a bill that has no unpaid
// occurrence left.
var ErrNothingDue = errors.New("bill has no unpaid occurrence")

// Entry is one bill occurrence on the calendar.
type Entry struct {
	BillID   string          `json:"billId"`
	Name     string          `json:"name"`
	Category string          `json:"category,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
	Status   Status          `json:"status"`
}

// Month is the calendar view of one month.
type Month struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Entries []Entry         `json:"entries"`
	Total   decimal.Decimal `json:"total"`
	Unpaid  decimal.Decimal `json:"unpaid"`
}

// StatusOf classifies an occurrence of b relative to today. LastPaid holds
// the date of the latest occurrence that has been paid.
func StatusOf(b core.Bill, occurrence, now time.Time) Status {
	occ, today := core.Day(occurrence), core.Day(now)
	if b.LastPaid != nil && !occ.After(core.Day(*b.LastPaid)) {
		return StatusPaid
	}
	switch {
	case occ.Before(today):
		return StatusOverdue
	case occ.Equal(today):
		return StatusDue
	default:
		return StatusUpcoming
	}
}

// NextDue returns the first unpaid occurrence of b. ok is false when every
// occurrence has been paid or the schedule has ended.
func NextDue(b core.Bill) (time.Time, bool, error) {
	r, err := GetRecurrence(b.Every)
	if err != nil {
		return time.Time{}, false, err
	}
	start := core.Day(b.StartDate)
	after := start.AddDate(0, 0, -1)
	if b.LastPaid != nil && !core.Day(*b.LastPaid).Before(start) {
		after = core.Day(*b.LastPaid)
	}

	for n := max(r.Skip(start, after), 0); ; n++ {
		occ, ok := r.Occurrence(start, n)
		if !ok {
			return time.Time{}, false, nil
		}
		if b.EndDate != nil && occ.After(core.Day(*b.EndDate)) {
			return time.Time{}, false, nil
		}
		if occ.After(after) {
			return occ, true, nil
		}
	}
}

// CurrentStatus is the status of the bill's next unpaid occurrence, or
// StatusPaid when nothing is left to pay.
func CurrentStatus(b core.Bill, now time.Time) (Status, error) {
	next, ok, err := NextDue(b)
	if err != nil {
		return "", err
	}
	if !ok {
		return StatusPaid, nil
	}
	return StatusOf(b, next, now), nil
}

// Listing is a bill with the state of its next unpaid occurrence. It is
// only ever encoded: the embedded bill's UnmarshalJSON would hide Status.
type Listing struct {
	core.Bill
	Status  Status     `json:"status"`
	NextDue *time.Time `json:"nextDue,omitempty"`
}

// List pairs every bill with its current status.
func List(bs []core.Bill, now time.Time) ([]Listing, error) {
	out := make([]Listing, 0, len(bs))
	for _, b := range bs {
		status, err := CurrentStatus(b, now)
		if err != nil {
			return nil, fmt.Errorf("bill %s: %w", b.ID, err)
		}
		l := Listing{Bill: b, Status: status}
		if next, ok, _ := NextDue(b); ok {
			l.NextDue = &next
		}
		out = append(out, l)
	}
	return out, nil
}

// Pay marks the next unpaid occurrence as paid and returns the updated bill.
func Pay(b core.Bill, now time.Time) (core.Bill, error) {
	next, ok, err := NextDue(b)
	if err != nil {
		return b, err
	}
	if !ok {
		return b, ErrNothingDue
	}
	b.LastPaid = &next
	b.UpdatedAt = now
	return b, nil
}

// Calendar lists every occurrence of the given bills in a month, sorted by
// date and then by name.
func Calendar(bills []core.Bill, year int, month time.Month, now time.Time) (Month, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	entries, err := collect(bills, from, to, now)
	if err != nil {
		return Month{}, err
	}
	m := Month{Year: year, Month: int(month), Entries: entries, Total: decimal.Zero, Unpaid: decimal.Zero}
	for _, e := range entries {
		m.Total = m.Total.Add(e.Amount)
		if e.Status != StatusPaid {
			m.Unpaid = m.Unpaid.Add(e.Amount)
		}
	}
	return m, nil
}

// Upcoming lists unpaid occurrences from today through the next days days,
// preceded by any overdue occurrence.
func Upcoming(bills []core.Bill, now time.Time, days int) ([]Entry, error) {
	today := core.Day(now)
	out := []Entry{}
	for _, b := range bills {
		next, ok, err := NextDue(b)
		if err != nil {
			return nil, err
		}
		if !ok || next.After(today.AddDate(0, 0, days)) {
			continue
		}
		occs, err := Occurrences(b, next, today.AddDate(0, 0, days))
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			out = append(out, entryFor(b, occ, now))
		}
	}
	sortEntries(out)
	return out, nil
}

func collect(bills []core.Bill, from, to, now time.Time) ([]Entry, error) {
	out := []Entry{}
	for _, b := range bills {
		occs, err := Occurrences(b, from, to)
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			out = append(out, entryFor(b, occ, now))
		}
	}
	sortEntries(out)
	return out, nil
}

func entryFor(b core.Bill, occ, now time.Time) Entry {
	currency := b.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	return Entry{
		BillID:   b.ID,
		Name:     b.Name,
		Category: b.Category,
		Amount:   b.Amount,
		Currency: currency,
		Date:     occ,
		Status:   StatusOf(b, occ, now),
	}
}

func sortEntries(es []Entry) {
	sort.SliceStable(es, func(i, j int) bool {
		if !es[i].Date.Equal(es[j].Date) {
			return es[i].Date.Before(es[j].Date)
		}
		return es[i].Name < es[j].Name
	})
}
