package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

const reviewsCollection = "agg_review"

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(reviewsCollection)}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	return r.findOne(ctx, bson.M{"booking_id": string(bookingID)})
}

func (r *ReviewRepository) findOne(ctx context.Context, filter bson.M) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// List returns matching reviews newest first, paged by Offset and Limit.
func (r *ReviewRepository) List(ctx context.Context, filter domainreviews.ListFilter) ([]*domainreviews.Review, error) {
	q := bson.M{}
	if filter.CarID != "" {
		q["car_id"] = string(filter.CarID)
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReviewRepository) Save(ctx context.Context, rv *domainreviews.Review) error {
	doc := newReviewDocument(rv)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return domainreviews.ErrDuplicateReview
	}
	return err
}

func (r *ReviewRepository) Delete(ctx context.Context, id domainreviews.ReviewID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainreviews.ErrNotFound
	}
	return nil
}

type reviewDocument struct {
	ID         string         `bson:"_id"`
	CarID      string         `bson:"car_id"`
	BookingID  string         `bson:"booking_id"`
	AuthorID   string         `bson:"author_id"`
	AuthorName string         `bson:"author_name"`
	Rating     int            `bson:"rating"`
	Text       string         `bson:"text"`
	Status     string         `bson:"status"`
	Reply      *replyDocument `bson:"reply,omitempty"`
	CreatedAt  int64          `bson:"created_at"`
	UpdatedAt  int64          `bson:"updated_at"`
}

type replyDocument struct {
	Text     string `bson:"text"`
	AuthorID string `bson:"author_id"`
	At       int64  `bson:"at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	doc := reviewDocument{
		ID:         string(r.ID),
		CarID:      string(r.CarID),
		BookingID:  string(r.BookingID),
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Text:       r.Text,
		Status:     string(r.Status),
		CreatedAt:  timeToTimestamp(r.CreatedAt),
		UpdatedAt:  timeToTimestamp(r.UpdatedAt),
	}
	if r.Reply != nil {
		doc.Reply = &replyDocument{Text: r.Reply.Text, AuthorID: r.Reply.AuthorID, At: timeToTimestamp(r.Reply.At)}
	}
	return doc
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	rv := &domainreviews.Review{
		ID:         domainreviews.ReviewID(d.ID),
		CarID:      domaincars.CarID(d.CarID),
		BookingID:  domainbooking.BookingID(d.BookingID),
		AuthorID:   d.AuthorID,
		AuthorName: d.AuthorName,
		Rating:     d.Rating,
		Text:       d.Text,
		Status:     domainreviews.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
	if d.Reply != nil {
		rv.Reply = &domainreviews.Reply{Text: d.Reply.Text, AuthorID: d.Reply.AuthorID, At: timestampToTime(d.Reply.At)}
	}
	return rv
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
