package domain

import (
	"fmt"
	"time"
)

// Month is a calendar month in UTC. It is the pipeline's unit of time:
// membership is evaluated at month granularity, never by day.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// ParseMonth parses the canonical "YYYY-MM" form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, ErrValidation("invalid month %q: want YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// String renders the canonical "YYYY-MM" form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// StartDate returns midnight UTC on the first day of the month.
func (m Month) StartDate() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool { return m.index() < other.index() }

// After reports whether m is strictly later than other.
func (m Month) After(other Month) bool { return m.index() > other.index() }

// IsZero reports whether m is the zero value.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// MonthsBetween returns the signed number of month steps from a to b.
func MonthsBetween(a, b Month) int { return b.index() - a.index() }
