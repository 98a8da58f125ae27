package memory

import (
	"context"
	"sync"
	"time"

	"rentacar/internal/app/middleware"
)

// DefaultIdempotencyRetention is how long a retried key replays its outcome.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// IdempotencyStore keeps command outcomes in a map. Records older than the
// retention are ignored on read and dropped on the next write.
type IdempotencyStore struct {
	mu        sync.Mutex
	retention time.Duration
	now       func() time.Time
	items     map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		retention: DefaultIdempotencyRetention,
		now:       time.Now,
		items:     make(map[string]middleware.IdempotencyRecord),
	}
}

// WithRetention changes how long records replay. Zero or less keeps the
// current retention.
func (s *IdempotencyStore) WithRetention(d time.Duration) *IdempotencyStore {
	if d > 0 {
		s.retention = d
	}
	return s
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, old := range s.items {
		if s.expired(old) {
			delete(s.items, k)
		}
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now().UTC()
	}
	s.items[rec.Key] = rec
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	return s.retention > 0 && s.now().Sub(rec.OccurredAt) > s.retention
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
