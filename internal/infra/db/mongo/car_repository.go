package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentacar/internal/app/uow"
	domaincars "rentacar/internal/domain/cars"
)

const carsCollection = "agg_car"

type CarRepository struct {
	col *mongo.Collection
}

func NewCarRepository(db *mongo.Database) *CarRepository {
	return &CarRepository{col: db.Collection(carsCollection)}
}

func (r *CarRepository) ByID(ctx context.Context, id domaincars.CarID) (*domaincars.Car, error) {
	var doc carDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincars.ErrCarNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CarRepository) Save(ctx context.Context, car *domaincars.Car) error {
	doc := newCarDocument(car)
	filter := bson.M{"_id": doc.ID, "version": car.Version}
	doc.Version = car.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return writeErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	car.Version = doc.Version
	return nil
}

func (r *CarRepository) Delete(ctx context.Context, id domaincars.CarID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domaincars.ErrCarNotFound
	}
	return nil
}

// Search narrows the collection on the indexed fields, then applies text
// matching, ordering and paging with the domain rules.
func (r *CarRepository) Search(ctx context.Context, params domaincars.SearchParams) (domaincars.SearchResult, error) {
	opts := params.Normalized()
	cur, err := r.col.Find(ctx, searchFilter(opts))
	if err != nil {
		return domaincars.SearchResult{}, err
	}
	defer cur.Close(ctx)

	matches := make([]*domaincars.Car, 0)
	for cur.Next(ctx) {
		var doc carDocument
		if err := cur.Decode(&doc); err != nil {
			return domaincars.SearchResult{}, err
		}
		if car := doc.toAggregate(); opts.Matches(car) {
			matches = append(matches, car)
		}
	}
	if err := cur.Err(); err != nil {
		return domaincars.SearchResult{}, err
	}
	domaincars.SortCars(matches, opts.Sort)
	return domaincars.SearchResult{
		Items: domaincars.Page(matches, opts.Offset, opts.Limit),
		Total: len(matches),
	}, nil
}

func searchFilter(p domaincars.SearchParams) bson.M {
	filter := bson.M{}
	if p.OnlyAvailable {
		filter["available"] = true
	}
	if p.Category != "" {
		filter["category"] = string(p.Category)
	}
	if p.MinSeats > 0 {
		filter["seats"] = bson.M{"$gte": p.MinSeats}
	}
	price := bson.M{}
	if p.PriceMin > 0 {
		price["$gte"] = p.PriceMin
	}
	if p.PriceMax > 0 {
		price["$lte"] = p.PriceMax
	}
	if len(price) > 0 {
		filter["daily_rate"] = price
	}
	return filter
}

type carDocument struct {
	ID           string  `bson:"_id"`
	Brand        string  `bson:"brand"`
	Model        string  `bson:"model"`
	Year         int     `bson:"year"`
	Category     string  `bson:"category"`
	Seats        int     `bson:"seats"`
	Transmission string  `bson:"transmission"`
	Fuel         string  `bson:"fuel"`
	DailyRate    int64   `bson:"daily_rate"`
	WeeklyRate   int64   `bson:"weekly_rate"`
	MonthlyRate  int64   `bson:"monthly_rate"`
	DriverFee    int64   `bson:"driver_fee_per_day"`
	Currency     string  `bson:"currency"`
	District     string  `bson:"district"`
	City         string  `bson:"city"`
	ImageURL     string  `bson:"image_url"`
	Rating       float64 `bson:"rating"`
	RatingCount  int     `bson:"rating_count"`
	Available    bool    `bson:"available"`
	CreatedAt    int64   `bson:"created_at"`
	UpdatedAt    int64   `bson:"updated_at"`
	Version      int64   `bson:"version"`
}

func newCarDocument(c *domaincars.Car) carDocument {
	return carDocument{
		ID:           string(c.ID),
		Brand:        c.Brand,
		Model:        c.Model,
		Year:         c.Year,
		Category:     string(c.Category),
		Seats:        c.Seats,
		Transmission: string(c.Transmission),
		Fuel:         c.Fuel,
		DailyRate:    c.Rates.Daily,
		WeeklyRate:   c.Rates.Weekly,
		MonthlyRate:  c.Rates.Monthly,
		DriverFee:    c.Rates.DriverFeePerDay,
		Currency:     c.Currency,
		District:     c.Location.District,
		City:         c.Location.City,
		ImageURL:     c.ImageURL,
		Rating:       c.Rating,
		RatingCount:  c.RatingCount,
		Available:    c.Available,
		CreatedAt:    timeToTimestamp(c.CreatedAt),
		UpdatedAt:    timeToTimestamp(c.UpdatedAt),
		Version:      c.Version,
	}
}

func (d carDocument) toAggregate() *domaincars.Car {
	return &domaincars.Car{
		ID:           domaincars.CarID(d.ID),
		Brand:        d.Brand,
		Model:        d.Model,
		Year:         d.Year,
		Category:     domaincars.Category(d.Category),
		Seats:        d.Seats,
		Transmission: domaincars.Transmission(d.Transmission),
		Fuel:         d.Fuel,
		Rates: domaincars.Rates{
			Daily:           d.DailyRate,
			Weekly:          d.WeeklyRate,
			Monthly:         d.MonthlyRate,
			DriverFeePerDay: d.DriverFee,
		},
		Currency:    d.Currency,
		Location:    domaincars.Location{District: d.District, City: d.City},
		ImageURL:    d.ImageURL,
		Rating:      d.Rating,
		RatingCount: d.RatingCount,
		Available:   d.Available,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

var _ domaincars.Repository = (*CarRepository)(nil)
