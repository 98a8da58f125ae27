package availability

import (
	"time"

	"rentacar/internal/domain/shared/daterange"
)

// ReservationStatus tags a reservation range on a car.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
)

func (s ReservationStatus) Valid() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// DayStatus is the resolved status of a single calendar date.
type DayStatus string

const (
	StatusAvailable DayStatus = "available"
	StatusPending   DayStatus = "pending"
	StatusConfirmed DayStatus = "confirmed"
)

// Label is the short caption shown on calendar cells.
func (s DayStatus) Label() string {
	switch s {
	case StatusConfirmed:
		return "Booked"
	case StatusPending:
		return "Pending"
	default:
		return "Available"
	}
}

// ReservationRange is an inclusive date interval held by one booking.
type ReservationRange struct {
	Range     daterange.DateRange `json:"range"`
	Status    ReservationStatus   `json:"status"`
	Reference string              `json:"reference,omitempty"`
}

// Schedule exposes the reservations of a car.
type Schedule interface {
	Reservations() []ReservationRange
}

// Ranges adapts a plain slice to Schedule.
type Ranges []ReservationRange

func (r Ranges) Reservations() []ReservationRange { return r }

// ExpandRange lists every calendar date in [start, end], both ends included.
func ExpandRange(start, end time.Time) ([]time.Time, error) {
	dr, err := daterange.New(start, end)
	if err != nil {
		return nil, err
	}
	return dr.Expand(), nil
}

// StatusMap paints pending ranges first and confirmed ranges over them, so a
// date covered by both resolves to confirmed. Malformed ranges are skipped.
func StatusMap(reservations []ReservationRange) map[string]DayStatus {
	out := make(map[string]DayStatus)
	paint := func(want ReservationStatus, as DayStatus) {
		for _, res := range reservations {
			if res.Status != want {
				continue
			}
			for _, d := range res.Range.Expand() {
				out[daterange.Key(d)] = as
			}
		}
	}
	paint(ReservationPending, StatusPending)
	paint(ReservationConfirmed, StatusConfirmed)
	return out
}

// StatusOf resolves one date. It walks the ranges directly instead of
// building the full map and yields the same answer as StatusMap.
func StatusOf(s Schedule, date time.Time) DayStatus {
	if s == nil {
		return StatusAvailable
	}
	status := StatusAvailable
	for _, res := range s.Reservations() {
		if res.Range.Validate() != nil || !res.Range.ContainsDate(date) {
			continue
		}
		switch res.Status {
		case ReservationConfirmed:
			return StatusConfirmed
		case ReservationPending:
			status = StatusPending
		}
	}
	return status
}

// IsBookable reports whether a date may be selected. Pending holds do not
// block; only confirmed reservations do.
func IsBookable(s Schedule, date time.Time) bool {
	return StatusOf(s, date) != StatusConfirmed
}

// FirstConfirmedIn returns the first confirmed date inside r, if any.
func FirstConfirmedIn(s Schedule, r daterange.DateRange) (time.Time, bool) {
	for _, d := range r.Expand() {
		if StatusOf(s, d) == StatusConfirmed {
			return d, true
		}
	}
	return time.Time{}, false
}
