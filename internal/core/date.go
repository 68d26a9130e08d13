package core

import (
	"errors"
	"time"
)

// DateFormat is the canonical wire and storage representation of a date.
const DateFormat = "2006-01-02"

// MonthFormat is the representation of a budget month.
const MonthFormat = "2006-01"

// Date is a calendar day with no time-of-day component. The embedded time
// is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a normalized Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in UTC.
func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, errors.New("invalid date, want YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

// ParseMonth parses a YYYY-MM budget month and returns its first day.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse(MonthFormat, s)
	if err != nil {
		return Date{}, errors.New("invalid month, want YYYY-MM")
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

// MonthKey returns the budget-month bucket of the date.
func (d Date) MonthKey() string {
	return d.Format(MonthFormat)
}

// After reports whether d falls after x.
func (d Date) After(x Date) bool { return d.Time.After(x.Time) }

// Before reports whether d falls before x.
func (d Date) Before(x Date) bool { return d.Time.Before(x.Time) }

// Equal reports whether both values are the same day.
func (d Date) Equal(x Date) bool { return d.Time.Equal(x.Time) }

// AddDays returns the date i days later (earlier for negative i).
func (d Date) AddDays(i int) Date {
	return Date{Time: d.Time.AddDate(0, 0, i)}
}

// AddMonths returns the date i months later (earlier for negative i).
func (d Date) AddMonths(i int) Date {
	return Date{Time: d.Time.AddDate(0, i, 0)}
}

// MonthStart returns the first day of the date's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// DaysUntil returns the number of whole days from d to x.
func (d Date) DaysUntil(x Date) int {
	return int(x.Time.Sub(d.Time) / (24 * time.Hour))
}
