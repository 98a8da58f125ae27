package availability

import (
	"time"

	"rentacar/internal/domain/shared/daterange"
)

type ReservationHeld struct {
	CarID     string
	Range     daterange.DateRange
	Reference string
	At        time.Time
}

func (e ReservationHeld) EventName() string     { return "calendar.held" }
func (e ReservationHeld) AggregateID() string   { return e.CarID }
func (e ReservationHeld) OccurredAt() time.Time { return e.At }

type ReservationConfirmedEvent struct {
	CarID     string
	Range     daterange.DateRange
	Reference string
	At        time.Time
}

func (e ReservationConfirmedEvent) EventName() string     { return "calendar.confirmed" }
func (e ReservationConfirmedEvent) AggregateID() string   { return e.CarID }
func (e ReservationConfirmedEvent) OccurredAt() time.Time { return e.At }

type ReservationReleased struct {
	CarID     string
	Range     daterange.DateRange
	Reference string
	At        time.Time
}

func (e ReservationReleased) EventName() string     { return "calendar.released" }
func (e ReservationReleased) AggregateID() string   { return e.CarID }
func (e ReservationReleased) OccurredAt() time.Time { return e.At }

type DayPainted struct {
	CarID  string
	Day    time.Time
	Status DayStatus
	At     time.Time
}

func (e DayPainted) EventName() string     { return "calendar.painted" }
func (e DayPainted) AggregateID() string   { return e.CarID }
func (e DayPainted) OccurredAt() time.Time { return e.At }
