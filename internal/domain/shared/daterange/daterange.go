package daterange

import (
	"errors"
	"strings"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: end date precedes start date")
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
)

// DateRange is an inclusive interval of calendar dates [Start, End].
// Both ends are kept at UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar date at UTC midnight. The wall-clock date
// in t's own location is kept, so 23:30 in Colombo stays on the same day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD calendar date.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Key formats a calendar date as YYYY-MM-DD.
func Key(t time.Time) string {
	return Day(t).Format(Layout)
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Single is the one-day range [day, day].
func Single(day time.Time) DateRange {
	d := Day(day)
	return DateRange{Start: d, End: d}
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if dr.End.Before(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Span is the number of calendar days between Start and End (0 when equal).
func (dr DateRange) Span() int {
	return DaysBetween(dr.Start, dr.End)
}

// Len counts the dates covered, both ends included.
func (dr DateRange) Len() int {
	return dr.Span() + 1
}

// Expand lists every date in the range in ascending order.
func (dr DateRange) Expand() []time.Time {
	if dr.Validate() != nil {
		return nil
	}
	out := make([]time.Time, 0, dr.Len())
	for d := dr.Start; !d.After(dr.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && !d.After(dr.End)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !other.Start.After(dr.End)
}

func (dr DateRange) Equal(other DateRange) bool {
	return dr.Start.Equal(other.Start) && dr.End.Equal(other.End)
}

func (dr DateRange) String() string {
	return Key(dr.Start) + ".." + Key(dr.End)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
