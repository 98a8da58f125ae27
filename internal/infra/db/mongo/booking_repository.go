package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentacar/internal/app/uow"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainpricing "rentacar/internal/domain/pricing"
)

const bookingsCollection = "agg_booking"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return writeErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// List returns matching bookings, newest first.
func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	q := bson.M{}
	if filter.RenterID != "" {
		q["renter_id"] = filter.RenterID
	}
	if filter.CarID != "" {
		q["car_id"] = string(filter.CarID)
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		q["state"] = bson.M{"$in": states}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID           string                   `bson:"_id"`
	CarID        string                   `bson:"car_id"`
	RenterID     string                   `bson:"renter_id"`
	Renter       renterDocument           `bson:"renter"`
	Range        rangeDocument            `bson:"range"`
	Terms        termsDocument            `bson:"terms"`
	Quote        domainpricing.PriceQuote `bson:"quote"`
	State        string                   `bson:"state"`
	CancelReason string                   `bson:"cancel_reason,omitempty"`
	CreatedAt    int64                    `bson:"created_at"`
	UpdatedAt    int64                    `bson:"updated_at"`
	Version      int64                    `bson:"version"`
}

type renterDocument struct {
	FullName      string `bson:"full_name"`
	Email         string `bson:"email"`
	Phone         string `bson:"phone"`
	NICOrPassport string `bson:"nic_or_passport"`
}

type termsDocument struct {
	PickupTime     string   `bson:"pickup_time"`
	ReturnTime     string   `bson:"return_time"`
	PickupDistrict string   `bson:"pickup_district"`
	ReturnDistrict string   `bson:"return_district"`
	WithDriver     bool     `bson:"with_driver"`
	Addons         []string `bson:"addons"`
	PromoCode      string   `bson:"promo_code,omitempty"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	addons := make([]string, 0, len(b.Terms.Addons))
	for _, a := range b.Terms.Addons {
		addons = append(addons, string(a))
	}
	return bookingDocument{
		ID:       string(b.ID),
		CarID:    string(b.CarID),
		RenterID: b.RenterID,
		Renter: renterDocument{
			FullName:      b.Renter.FullName,
			Email:         b.Renter.Email,
			Phone:         b.Renter.Phone,
			NICOrPassport: b.Renter.NICOrPassport,
		},
		Range: newRangeDocument(b.Range),
		Terms: termsDocument{
			PickupTime:     b.Terms.PickupTime,
			ReturnTime:     b.Terms.ReturnTime,
			PickupDistrict: b.Terms.PickupDistrict,
			ReturnDistrict: b.Terms.ReturnDistrict,
			WithDriver:     b.Terms.WithDriver,
			Addons:         addons,
			PromoCode:      b.Terms.PromoCode,
		},
		Quote:        b.Quote.Copy(),
		State:        string(b.State),
		CancelReason: b.CancelReason,
		CreatedAt:    timeToTimestamp(b.CreatedAt),
		UpdatedAt:    timeToTimestamp(b.UpdatedAt),
		Version:      b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	addons := make([]domainpricing.AddonKind, 0, len(d.Terms.Addons))
	for _, a := range d.Terms.Addons {
		addons = append(addons, domainpricing.AddonKind(a))
	}
	return &domainbooking.Booking{
		ID:       domainbooking.BookingID(d.ID),
		CarID:    domaincars.CarID(d.CarID),
		RenterID: d.RenterID,
		Renter: domainbooking.Renter{
			FullName:      d.Renter.FullName,
			Email:         d.Renter.Email,
			Phone:         d.Renter.Phone,
			NICOrPassport: d.Renter.NICOrPassport,
		},
		Range: d.Range.toRange(),
		Terms: domainbooking.Terms{
			PickupTime:     d.Terms.PickupTime,
			ReturnTime:     d.Terms.ReturnTime,
			PickupDistrict: d.Terms.PickupDistrict,
			ReturnDistrict: d.Terms.ReturnDistrict,
			WithDriver:     d.Terms.WithDriver,
			Addons:         addons,
			PromoCode:      d.Terms.PromoCode,
		},
		Quote:        d.Quote,
		State:        domainbooking.BookingState(d.State),
		CancelReason: d.CancelReason,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
