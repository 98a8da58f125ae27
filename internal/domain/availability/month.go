package availability

import (
	"time"

	"rentacar/internal/domain/shared/daterange"
)

const (
	WeeksPerMatrix = 6
	CellsPerMatrix = WeeksPerMatrix * 7
)

// Cell is one slot of a month grid; Blank cells pad outside the month.
type Cell struct {
	Date  time.Time
	Blank bool
}

// Matrix is a fixed 6x7 month grid.
type Matrix struct {
	Year             int
	Month            time.Month
	WeekStartsMonday bool
	Weeks            [WeeksPerMatrix][7]Cell
}

// Cells flattens the grid in reading order.
func (m Matrix) Cells() []Cell {
	out := make([]Cell, 0, CellsPerMatrix)
	for _, week := range m.Weeks {
		out = append(out, week[:]...)
	}
	return out
}

// MonthMatrix lays out a month on a 42-cell grid. Leading blanks equal the
// weekday offset of day 1 for the chosen week start; trailing blanks fill the
// rest. Months that would need fewer rows are still padded to six.
func MonthMatrix(year int, month time.Month, weekStartsMonday bool) Matrix {
	first := daterange.Date(year, month, 1)
	// normalise overflowing month values such as 13
	year, month = first.Year(), first.Month()
	shift := int(first.Weekday())
	if weekStartsMonday {
		shift = (shift + 6) % 7
	}
	days := first.AddDate(0, 1, -1).Day()

	m := Matrix{Year: year, Month: month, WeekStartsMonday: weekStartsMonday}
	for i := 0; i < CellsPerMatrix; i++ {
		dayNum := i - shift + 1
		cell := Cell{Blank: true}
		if dayNum >= 1 && dayNum <= days {
			cell = Cell{Date: daterange.Date(year, month, dayNum)}
		}
		m.Weeks[i/7][i%7] = cell
	}
	return m
}

// DayView annotates a cell for rendering.
type DayView struct {
	Cell
	Status   DayStatus
	Label    string
	Bookable bool
	IsToday  bool
	IsPast   bool
}

// MonthView is a month grid with each date resolved against a schedule.
type MonthView struct {
	Matrix
	Days [WeeksPerMatrix][7]DayView
}

// BuildMonthView resolves every cell of the month grid against s using one
// status map pass.
func BuildMonthView(s Schedule, year int, month time.Month, weekStartsMonday bool, today time.Time) MonthView {
	m := MonthMatrix(year, month, weekStartsMonday)
	var statuses map[string]DayStatus
	if s != nil {
		statuses = StatusMap(s.Reservations())
	}
	today = daterange.Day(today)
	view := MonthView{Matrix: m}
	for w, week := range m.Weeks {
		for d, cell := range week {
			dv := DayView{Cell: cell}
			if !cell.Blank {
				status, ok := statuses[daterange.Key(cell.Date)]
				if !ok {
					status = StatusAvailable
				}
				dv.Status = status
				dv.Label = status.Label()
				dv.Bookable = status != StatusConfirmed
				dv.IsToday = !today.IsZero() && cell.Date.Equal(today)
				dv.IsPast = !today.IsZero() && cell.Date.Before(today)
			}
			view.Days[w][d] = dv
		}
	}
	return view
}
