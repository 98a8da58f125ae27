package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentacar/internal/app/middleware"
)

const idempotencyCollection = "command_outcomes"

// IdempotencyStore keeps command outcomes keyed by the scoped client key.
// The first outcome saved for a key wins; a TTL index removes records once
// their retention has passed.
type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, retention time.Duration) (*IdempotencyStore, error) {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	col := db.Collection(idempotencyCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "stored_at", Value: 1}},
		Options: options.Index().SetName("outcome_ttl").SetExpireAfterSeconds(int32(retention / time.Second)),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc outcomeDocument
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return middleware.IdempotencyRecord{}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:        doc.Key,
		Payload:    doc.Result,
		Error:      doc.Failure,
		OccurredAt: doc.HandledAt,
	}, true, nil
}

// Save inserts rec unless a concurrent request already stored an outcome
// for the same key.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	_, err := s.col.InsertOne(ctx, outcomeDocument{
		Key:       rec.Key,
		Result:    rec.Payload,
		Failure:   rec.Error,
		HandledAt: rec.OccurredAt,
		StoredAt:  time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

type outcomeDocument struct {
	Key       string    `bson:"_id"`
	Result    []byte    `bson:"result,omitempty"`
	Failure   string    `bson:"failure,omitempty"`
	HandledAt time.Time `bson:"handled_at"`
	StoredAt  time.Time `bson:"stored_at"`
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
