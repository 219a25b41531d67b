package bills

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/core"
)

func bill(id string, every core.Frequency, start time.Time) core.Bill {
	return core.Bill{
		ID:        id,
		UserID:    "u1",
		Name:      id,
		Amount:    decimal.NewFromInt(100),
		Every:     every,
		StartDate: start,
	}
}

func ptr(t time.Time) *time.Time { return &t }

func dates(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format("2006-01-02")
	}
	return out
}

func TestOccurrences(t *testing.T) {
	tests := []struct {
		name     string
		bill     core.Bill
		from, to time.Time
		want     []string
	}{
		{
			name: "monthly clamps to month end",
			bill: bill("rent", core.Monthly, core.NewDate(2024, 1, 31)),
			from: core.NewDate(2024, 1, 1), to: core.NewDate(2024, 4, 30),
			want: []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"},
		},
		{
			name: "weekly inside window",
			bill: bill("gym", core.Weekly, core.NewDate(2024, 1, 1)),
			from: core.NewDate(2024, 1, 10), to: core.NewDate(2024, 1, 31),
			want: []string{"2024-01-15", "2024-01-22", "2024-01-29"},
		},
		{
			name: "daily from long ago",
			bill: bill("coffee", core.Daily, core.NewDate(1990, 1, 1)),
			from: core.NewDate(2024, 3, 1), to: core.NewDate(2024, 3, 3),
			want: []string{"2024-03-01", "2024-03-02", "2024-03-03"},
		},
		{
			name: "yearly leap day",
			bill: bill("domain", core.Yearly, core.NewDate(2020, 2, 29)),
			from: core.NewDate(2021, 1, 1), to: core.NewDate(2024, 12, 31),
			want: []string{"2021-02-28", "2022-02-28", "2023-02-28", "2024-02-29"},
		},
		{
			name: "once",
			bill: bill("tv", core.Once, core.NewDate(2024, 5, 5)),
			from: core.NewDate(2024, 1, 1), to: core.NewDate(2024, 12, 31),
			want: []string{"2024-05-05"},
		},
		{
			name: "window before start",
			bill: bill("late", core.Monthly, core.NewDate(2024, 6, 1)),
			from: core.NewDate(2024, 1, 1), to: core.NewDate(2024, 5, 31),
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Occurrences(tt.bill, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dates(got))
		})
	}
}

func TestOccurrencesHonoursEndDate(t *testing.T) {
	b := bill("loan", core.Monthly, core.NewDate(2024, 1, 10))
	b.EndDate = ptr(core.NewDate(2024, 3, 10))

	got, err := Occurrences(b, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10", "2024-02-10", "2024-03-10"}, dates(got))
}

func TestOccurrencesUnknownFrequency(t *testing.T) {
	_, err := Occurrences(bill("x", "hourly", core.NewDate(2024, 1, 1)), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 2))
	assert.ErrorIs(t, err, core.ErrInvalidFrequency)
}

func TestStatusOf(t *testing.T) {
	b := bill("rent", core.Monthly, core.NewDate(2024, 1, 5))
	now := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, StatusOverdue, StatusOf(b, core.NewDate(2024, 2, 5), now))
	assert.Equal(t, StatusDue, StatusOf(b, core.NewDate(2024, 3, 5), now))
	assert.Equal(t, StatusUpcoming, StatusOf(b, core.NewDate(2024, 4, 5), now))

	b.LastPaid = ptr(core.NewDate(2024, 2, 5))
	assert.Equal(t, StatusPaid, StatusOf(b, core.NewDate(2024, 2, 5), now))
	assert.Equal(t, StatusDue, StatusOf(b, core.NewDate(2024, 3, 5), now))
}

func TestPayAdvancesNextDue(t *testing.T) {
	now := core.NewDate(2024, 3, 20)
	b := bill("rent", core.Monthly, core.NewDate(2024, 1, 31))

	next, ok, err := NextDue(b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-01-31", next.Format("2006-01-02"))

	for _, want := range []string{"2024-01-31", "2024-02-29", "2024-03-31"} {
		b, err = Pay(b, now)
		require.NoError(t, err)
		assert.Equal(t, want, b.LastPaid.Format("2006-01-02"))
	}

	status, err := CurrentStatus(b, now)
	require.NoError(t, err)
	assert.Equal(t, StatusUpcoming, status)
}

func TestPayOnceBill(t *testing.T) {
	b := bill("tv", core.Once, core.NewDate(2024, 5, 5))
	b, err := Pay(b, core.NewDate(2024, 5, 1))
	require.NoError(t, err)

	_, err = Pay(b, core.NewDate(2024, 5, 1))
	assert.ErrorIs(t, err, ErrNothingDue)

	status, err := CurrentStatus(b, core.NewDate(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

func TestCalendar(t *testing.T) {
	rent := bill("rent", core.Monthly, core.NewDate(2024, 1, 31))
	rent.LastPaid = ptr(core.NewDate(2024, 1, 31))
	gym := bill("gym", core.Weekly, core.NewDate(2024, 2, 5))
	gym.Amount = decimal.NewFromInt(10)

	m, err := Calendar([]core.Bill{rent, gym}, 2024, time.February, core.NewDate(2024, 2, 14))
	require.NoError(t, err)

	require.Len(t, m.Entries, 5)
	assert.Equal(t, "gym", m.Entries[0].Name)
	assert.Equal(t, StatusOverdue, m.Entries[0].Status)
	assert.Equal(t, "rent", m.Entries[4].Name)
	assert.Equal(t, "2024-02-29", m.Entries[4].Date.Format("2006-01-02"))
	assert.Equal(t, StatusUpcoming, m.Entries[4].Status)
	assert.Equal(t, core.DefaultCurrency, m.Entries[0].Currency)
	assert.True(t, decimal.NewFromInt(140).Equal(m.Total))
	assert.True(t, decimal.NewFromInt(140).Equal(m.Unpaid))
}

func TestUpcomingIncludesOverdue(t *testing.T) {
	now := core.NewDate(2024, 3, 10)
	phone := bill("phone", core.Monthly, core.NewDate(2024, 1, 1))
	phone.LastPaid = ptr(core.NewDate(2024, 2, 1))
	later := bill("insurance", core.Yearly, core.NewDate(2023, 9, 1))
	later.LastPaid = ptr(core.NewDate(2023, 9, 1))

	got, err := Upcoming([]core.Bill{phone, later}, now, 30)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-01", got[0].Date.Format("2006-01-02"))
	assert.Equal(t, StatusOverdue, got[0].Status)
	assert.Equal(t, "2024-04-01", got[1].Date.Format("2006-01-02"))
	assert.Equal(t, StatusUpcoming, got[1].Status)
}

func TestListCarriesStatus(t *testing.T) {
	now := core.NewDate(2024, 3, 10)
	rent := bill("rent", core.Monthly, core.NewDate(2024, 1, 5))
	rent.LastPaid = ptr(core.NewDate(2024, 2, 5))
	tv := bill("tv", core.Once, core.NewDate(2024, 1, 1))
	tv.LastPaid = ptr(core.NewDate(2024, 1, 1))

	got, err := List([]core.Bill{rent, tv}, now)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, StatusOverdue, got[0].Status)
	require.NotNil(t, got[0].NextDue)
	assert.Equal(t, "2024-03-05", got[0].NextDue.Format("2006-01-02"))

	assert.Equal(t, StatusPaid, got[1].Status)
	assert.Nil(t, got[1].NextDue)

	data, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"overdue"`)
	assert.Contains(t, string(data), `"name":"rent"`)

	_, err = List([]core.Bill{bill("odd", core.Frequency("hourly"), now)}, now)
	assert.Error(t, err)
}
