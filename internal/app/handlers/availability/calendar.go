package availability

import (
	"context"
	"errors"
	"time"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

const (
	monthKey     = "availability.month"
	checkDateKey = "availability.check"
	paintDayKey  = "availability.paint"
)

var ErrInvalidMonth = errors.New("availability: month must be between 1 and 12")

// MonthQuery asks for the 6x7 grid of one month. A zero Year or Month
// falls back to the current one.
type MonthQuery struct {
	CarID            string `validate:"required"`
	Year             int    `validate:"omitempty,min=1970,max=9999"`
	Month            int    `validate:"omitempty,min=1,max=12"`
	WeekStartsMonday bool
}

func (MonthQuery) Key() string { return monthKey }

type CheckDateQuery struct {
	CarID string    `validate:"required"`
	Date  time.Time `validate:"required"`
}

func (CheckDateQuery) Key() string { return checkDateKey }

// PaintDayCommand sets a single day from the admin calendar.
type PaintDayCommand struct {
	CarID  string    `validate:"required"`
	Date   time.Time `validate:"required"`
	Status domainavailability.DayStatus
}

func (PaintDayCommand) Key() string               { return paintDayKey }
func (PaintDayCommand) AccessLevel() access.Level { return access.AdminOnly }

type Handler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
}

func (h *Handler) Month(ctx context.Context, q MonthQuery) (dto.MonthCalendar, error) {
	today := h.Clock.Now()
	year, month := q.Year, q.Month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if month < 1 || month > 12 {
		return dto.MonthCalendar{}, ErrInvalidMonth
	}
	cal, err := h.load(ctx, q.CarID)
	if err != nil {
		return dto.MonthCalendar{}, err
	}
	view := domainavailability.BuildMonthView(cal, year, time.Month(month), q.WeekStartsMonday, today)
	out := dto.MapMonthView(q.CarID, view)
	if access.IsAdmin(ctx) {
		out.Reservations = dto.MapReservations(cal.Reservations(), true)
	}
	return out, nil
}

func (h *Handler) Check(ctx context.Context, q CheckDateQuery) (dto.DayAvailability, error) {
	if q.Date.IsZero() {
		return dto.DayAvailability{}, daterange.ErrInvalidDate
	}
	cal, err := h.load(ctx, q.CarID)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	return mapDay(q.CarID, q.Date, domainavailability.StatusOf(cal, q.Date)), nil
}

func (h *Handler) Paint(ctx context.Context, cmd PaintDayCommand) (dto.DayAvailability, error) {
	if cmd.Date.IsZero() {
		return dto.DayAvailability{}, daterange.ErrInvalidDate
	}
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	defer cleanup()

	carID := domaincars.CarID(cmd.CarID)
	if _, err := unit.Cars().ByID(ctx, carID); err != nil {
		return dto.DayAvailability{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, carID)
	if err != nil {
		return dto.DayAvailability{}, err
	}
	if err := cal.Paint(cmd.Date, cmd.Status, h.Clock.Now()); err != nil {
		return dto.DayAvailability{}, err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return dto.DayAvailability{}, err
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, cal); err != nil {
		return dto.DayAvailability{}, err
	}
	if err := commit(); err != nil {
		return dto.DayAvailability{}, err
	}
	return mapDay(cmd.CarID, cmd.Date, domainavailability.StatusOf(cal, cmd.Date)), nil
}

func (h *Handler) load(ctx context.Context, carID string) (*domainavailability.Calendar, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	id := domaincars.CarID(carID)
	if _, err := unit.Cars().ByID(ctx, id); err != nil {
		return nil, err
	}
	return unit.Calendars().Calendar(ctx, id)
}

func mapDay(carID string, date time.Time, status domainavailability.DayStatus) dto.DayAvailability {
	return dto.DayAvailability{
		CarID:    carID,
		Date:     daterange.Key(date),
		Status:   string(status),
		Label:    status.Label(),
		Bookable: status != domainavailability.StatusConfirmed,
	}
}
