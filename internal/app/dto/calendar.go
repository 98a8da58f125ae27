package dto

import (
	"rentacar/internal/domain/availability"
	"rentacar/internal/domain/shared/daterange"
)

// CalendarDay is one grid cell. Blank cells carry no date.
type CalendarDay struct {
	Date     string `json:"date,omitempty"`
	Day      int    `json:"day,omitempty"`
	Blank    bool   `json:"blank"`
	Status   string `json:"status,omitempty"`
	Label    string `json:"label,omitempty"`
	Bookable bool   `json:"bookable"`
	Today    bool   `json:"today,omitempty"`
	Past     bool   `json:"past,omitempty"`
}

type MonthCalendar struct {
	CarID            string            `json:"car_id"`
	Year             int               `json:"year"`
	Month            int               `json:"month"`
	WeekStartsMonday bool              `json:"week_starts_monday"`
	Weeks            [][]CalendarDay   `json:"weeks"`
	Reservations     []ReservationSpan `json:"reservations,omitempty"`
}

type ReservationSpan struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
}

type DayAvailability struct {
	CarID    string `json:"car_id"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Label    string `json:"label"`
	Bookable bool   `json:"bookable"`
}

func MapMonthView(carID string, view availability.MonthView) MonthCalendar {
	out := MonthCalendar{
		CarID:            carID,
		Year:             view.Year,
		Month:            int(view.Month),
		WeekStartsMonday: view.WeekStartsMonday,
		Weeks:            make([][]CalendarDay, 0, availability.WeeksPerMatrix),
	}
	for _, week := range view.Days {
		row := make([]CalendarDay, 0, 7)
		for _, d := range week {
			if d.Blank {
				row = append(row, CalendarDay{Blank: true})
				continue
			}
			row = append(row, CalendarDay{
				Date:     daterange.Key(d.Date),
				Day:      d.Date.Day(),
				Status:   string(d.Status),
				Label:    d.Label,
				Bookable: d.Bookable,
				Today:    d.IsToday,
				Past:     d.IsPast,
			})
		}
		out.Weeks = append(out.Weeks, row)
	}
	return out
}

// MapReservations exposes raw ranges; references are dropped unless the
// caller is an admin.
func MapReservations(items []availability.ReservationRange, withReferences bool) []ReservationSpan {
	out := make([]ReservationSpan, 0, len(items))
	for _, r := range items {
		span := ReservationSpan{
			From:   daterange.Key(r.Range.Start),
			To:     daterange.Key(r.Range.End),
			Status: string(r.Status),
		}
		if withReferences {
			span.Reference = r.Reference
		}
		out = append(out, span)
	}
	return out
}
