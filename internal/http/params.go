package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aura/internal/analytics"
)

const dateLayout = "2006-01-02"

// parseFilter reads ?from=&to=&bank=&category=. Bank and category may be
// repeated or comma separated.
func parseFilter(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()
	var f analytics.Filter

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return analytics.Filter{}, badRequest("%s must be a date like 2006-01-02", p.name)
		}
		*p.dst = d
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return analytics.Filter{}, badRequest("to must not be before from")
	}

	f.BankIDs = listParam(q, "bank")
	f.Categories = listParam(q, "category")
	return f, nil
}

func listParam(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// intParam returns the integer query parameter name, def when absent, or
// an error when it is outside [lo, hi].
func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, badRequest("%s must be a number between %d and %d", name, lo, hi)
	}
	return n, nil
}
