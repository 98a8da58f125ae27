package availability

import (
	"context"
	"errors"
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/events"
)

var (
	ErrConfirmedOverlap = errors.New("availability: range overlaps a confirmed reservation")
	ErrRangeNotFound    = errors.New("availability: reservation not found")
	ErrReferenceTaken   = errors.New("availability: reservation reference already used")
	ErrInvalidStatus    = errors.New("availability: invalid reservation status")
)

// OverlapError reports the confirmed reservation that blocked a hold or a
// confirmation. It unwraps to ErrConfirmedOverlap.
type OverlapError struct {
	Reference string
	Conflict  string
}

func (e *OverlapError) Error() string {
	return ErrConfirmedOverlap.Error() + " (" + e.Conflict + ")"
}

func (e *OverlapError) Unwrap() error { return ErrConfirmedOverlap }

// Calendar is the reservation ledger of one car.
type Calendar struct {
	CarID   cars.CarID
	Entries []ReservationRange
	Version int64
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, id cars.CarID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id cars.CarID) *Calendar {
	return &Calendar{CarID: id}
}

// Reservations implements Schedule.
func (c *Calendar) Reservations() []ReservationRange {
	if c == nil {
		return nil
	}
	return c.Entries
}

// CanHold reports whether r is free of confirmed reservations.
func (c *Calendar) CanHold(r daterange.DateRange) bool {
	return c.overlapsConfirmed(r, "") == nil
}

// Hold places a pending reservation. Pending ranges may overlap each other;
// only confirmed ranges block.
func (c *Calendar) Hold(r daterange.DateRange, reference string, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if reference != "" && c.indexOf(reference) >= 0 {
		return ErrReferenceTaken
	}
	if hit := c.overlapsConfirmed(r, ""); hit != nil {
		return &OverlapError{Reference: reference, Conflict: hit.Reference}
	}
	c.Entries = append(c.Entries, ReservationRange{Range: r, Status: ReservationPending, Reference: reference})
	c.Record(ReservationHeld{CarID: string(c.CarID), Range: r, Reference: reference, At: now.UTC()})
	return nil
}

// Confirm promotes a pending hold. It fails when another confirmed range
// already covers any of its dates.
func (c *Calendar) Confirm(reference string, now time.Time) error {
	idx := c.indexOf(reference)
	if idx < 0 {
		return ErrRangeNotFound
	}
	entry := c.Entries[idx]
	if entry.Status == ReservationConfirmed {
		return nil
	}
	if hit := c.overlapsConfirmed(entry.Range, reference); hit != nil {
		return &OverlapError{Reference: reference, Conflict: hit.Reference}
	}
	c.Entries[idx].Status = ReservationConfirmed
	c.Record(ReservationConfirmedEvent{CarID: string(c.CarID), Range: entry.Range, Reference: reference, At: now.UTC()})
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx := c.indexOf(reference)
	if idx < 0 {
		return ErrRangeNotFound
	}
	removed := c.Entries[idx]
	c.Entries = append(c.Entries[:idx], c.Entries[idx+1:]...)
	c.Record(ReservationReleased{CarID: string(c.CarID), Range: removed.Range, Reference: reference, At: now.UTC()})
	return nil
}

// Paint sets one day from the admin calendar. Available clears the admin
// mark for that day; bookings are never touched by painting.
func (c *Calendar) Paint(day time.Time, status DayStatus, now time.Time) error {
	ref := PaintReference(day)
	if idx := c.indexOf(ref); idx >= 0 {
		c.Entries = append(c.Entries[:idx], c.Entries[idx+1:]...)
	}
	var rs ReservationStatus
	switch status {
	case StatusAvailable:
		c.Record(DayPainted{CarID: string(c.CarID), Day: daterange.Day(day), Status: status, At: now.UTC()})
		return nil
	case StatusPending:
		rs = ReservationPending
	case StatusConfirmed:
		rs = ReservationConfirmed
	default:
		return ErrInvalidStatus
	}
	c.Entries = append(c.Entries, ReservationRange{Range: daterange.Single(day), Status: rs, Reference: ref})
	c.Record(DayPainted{CarID: string(c.CarID), Day: daterange.Day(day), Status: status, At: now.UTC()})
	return nil
}

// PaintReference names the entry created by Paint for a day.
func PaintReference(day time.Time) string {
	return "admin:" + daterange.Key(day)
}

func (c *Calendar) Entry(reference string) (ReservationRange, bool) {
	idx := c.indexOf(reference)
	if idx < 0 {
		return ReservationRange{}, false
	}
	return c.Entries[idx], true
}

func (c *Calendar) indexOf(reference string) int {
	for i, e := range c.Entries {
		if e.Reference == reference {
			return i
		}
	}
	return -1
}

func (c *Calendar) overlapsConfirmed(r daterange.DateRange, skip string) *ReservationRange {
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.Status != ReservationConfirmed || (skip != "" && e.Reference == skip) {
			continue
		}
		if e.Range.Overlaps(r) {
			return e
		}
	}
	return nil
}
