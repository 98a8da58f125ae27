package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

const calendarsCollection = "agg_calendar"

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection(calendarsCollection)}
}

// Calendar hands out an empty calendar for cars never booked.
func (r *CalendarRepository) Calendar(ctx context.Context, id domaincars.CarID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	doc.Version = cal.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return writeErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Entries []entryDocument `bson:"entries"`
	Version int64           `bson:"version"`
}

type entryDocument struct {
	Range     rangeDocument `bson:"range"`
	Status    string        `bson:"status"`
	Reference string        `bson:"reference,omitempty"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newRangeDocument(r daterange.DateRange) rangeDocument {
	return rangeDocument{Start: r.Start.UnixMilli(), End: r.End.UnixMilli()}
}

func (d rangeDocument) toRange() daterange.DateRange {
	return daterange.DateRange{Start: timestampToTime(d.Start), End: timestampToTime(d.End)}
}

func newCalendarDocument(c *domainavailability.Calendar) calendarDocument {
	entries := make([]entryDocument, 0, len(c.Entries))
	for _, e := range c.Entries {
		entries = append(entries, entryDocument{
			Range:     newRangeDocument(e.Range),
			Status:    string(e.Status),
			Reference: e.Reference,
		})
	}
	return calendarDocument{ID: string(c.CarID), Entries: entries, Version: c.Version}
}

func (d calendarDocument) toAggregate() *domainavailability.Calendar {
	cal := domainavailability.NewCalendar(domaincars.CarID(d.ID))
	cal.Version = d.Version
	for _, e := range d.Entries {
		cal.Entries = append(cal.Entries, domainavailability.ReservationRange{
			Range:     e.Range.toRange(),
			Status:    domainavailability.ReservationStatus(e.Status),
			Reference: e.Reference,
		})
	}
	return cal
}

var _ domainavailability.Repository = (*CalendarRepository)(nil)
