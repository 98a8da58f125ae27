package memory

import (
	"context"
	"sort"

	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

// CarRepository serves cars from memory. Returned aggregates are copies.
type CarRepository struct {
	rows rows[domaincars.CarID, *domaincars.Car]
}

func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	car, ok := r.rows.get(id)
	if !ok {
		return nil, domaincars.ErrCarNotFound
	}
	return car, nil
}

func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	r.rows.put(car.ID, car)
	return nil
}

func (r *CarRepository) Delete(ctx context.Context, id domaincars.CarID) error {
	if !r.rows.remove(id) {
		return domaincars.ErrCarNotFound
	}
	return nil
}

func (r *CarRepository) Search(ctx context.Context, params domaincars.SearchParams) (domaincars.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return domaincars.SearchResult{}, err
	}
	opts := params.Normalized()
	matches := make([]*domaincars.Car, 0)
	for _, car := range r.rows.all() {
		if opts.Matches(car) {
			matches = append(matches, car)
		}
	}
	domaincars.SortCars(matches, opts.Sort)
	return domaincars.SearchResult{
		Items: domaincars.Page(matches, opts.Offset, opts.Limit),
		Total: len(matches),
	}, nil
}

// CalendarRepository hands out an empty calendar for cars never booked.
type CalendarRepository struct {
	rows rows[domaincars.CarID, *domainavailability.Calendar]
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domaincars.CarID) (*domainavailability.Calendar, error) {
	if cal, ok := r.rows.get(id); ok {
		return cal, nil
	}
	return domainavailability.NewCalendar(id), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	r.rows.put(cal.CarID, cal)
	return nil
}

type BookingRepository struct {
	rows rows[domainbooking.BookingID, *domainbooking.Booking]
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, ok := r.rows.get(id)
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.rows.put(b.ID, b)
	return nil
}

// List returns matching bookings, newest first.
func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.rows.all() {
		if filter.Matches(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type ReviewRepository struct {
	rows rows[domainreviews.ReviewID, *domainreviews.Review]
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	rv, ok := r.rows.get(id)
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return rv, nil
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	for _, rv := range r.rows.all() {
		if rv.BookingID == bookingID {
			return rv, nil
		}
	}
	return nil, domainreviews.ErrNotFound
}

// List returns matching reviews newest first, paged by Offset and Limit.
func (r *ReviewRepository) List(ctx context.Context, filter domainreviews.ListFilter) ([]*domainreviews.Review, error) {
	out := make([]*domainreviews.Review, 0)
	for _, rv := range r.rows.all() {
		if filter.CarID != "" && rv.CarID != filter.CarID {
			continue
		}
		if filter.Status != "" && rv.Status != filter.Status {
			continue
		}
		out = append(out, rv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*domainreviews.Review{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ReviewRepository) Save(ctx context.Context, rv *domainreviews.Review) error {
	r.rows.put(rv.ID, rv)
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id domainreviews.ReviewID) error {
	if !r.rows.remove(id) {
		return domainreviews.ErrNotFound
	}
	return nil
}

func cloneCar(c *domaincars.Car) *domaincars.Car {
	out := *c
	out.ClearEvents()
	return &out
}

func carVersion(c *domaincars.Car) *int64 { return &c.Version }

func cloneCalendar(c *domainavailability.Calendar) *domainavailability.Calendar {
	out := *c
	out.Entries = append([]domainavailability.ReservationRange(nil), c.Entries...)
	out.ClearEvents()
	return &out
}

func calendarVersion(c *domainavailability.Calendar) *int64 { return &c.Version }

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	out := *b
	out.Quote = b.Quote.Copy()
	out.Terms.Addons = append(out.Terms.Addons[:0:0], b.Terms.Addons...)
	out.ClearEvents()
	return &out
}

func bookingVersion(b *domainbooking.Booking) *int64 { return &b.Version }

func cloneReview(r *domainreviews.Review) *domainreviews.Review {
	out := *r
	if r.Reply != nil {
		reply := *r.Reply
		out.Reply = &reply
	}
	out.ClearEvents()
	return &out
}

var (
	_ domaincars.Repository         = (*CarRepository)(nil)
	_ domainavailability.Repository = (*CalendarRepository)(nil)
	_ domainbooking.Repository      = (*BookingRepository)(nil)
	_ domainreviews.Repository      = (*ReviewRepository)(nil)
)
