package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	infraoutbox "rentacar/internal/infra/outbox"
)

// Outbox queues event records for the relay. Records added inside a memory
// unit are staged on the unit and only queued when it commits.
type Outbox struct {
	mu      sync.Mutex
	records []*infraoutbox.EventDocument
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if stager, ok := unit.(recordStager); ok {
			stager.stageRecord(record)
			return nil
		}
	}
	o.enqueue(record)
	return nil
}

// Flush is a no-op; the relay drains the queue.
func (o *Outbox) Flush(context.Context) error { return nil }

func (o *Outbox) enqueue(records ...appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, rec := range records {
		o.records = append(o.records, &infraoutbox.EventDocument{
			ID:          rec.ID,
			Name:        rec.Name,
			Payload:     rec.Payload,
			OccurredAt:  rec.OccurredAt,
			Aggregate:   rec.Aggregate,
			Headers:     rec.Headers,
			State:       infraoutbox.StateNew,
			NextAttempt: now,
		})
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, doc := range o.records {
		if (doc.State == infraoutbox.StateNew || doc.State == infraoutbox.StateFailed) && !doc.NextAttempt.After(now) {
			doc.State = infraoutbox.StateClaimed
			doc.ClaimedBy = workerID
			doc.ClaimedAt = now
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

// MarkSent drops the record; delivered events are not retained in memory.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, doc := range o.records {
		if doc.ID == id {
			o.records = append(o.records[:i], o.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.records {
		if doc.ID == id {
			doc.State = infraoutbox.StateFailed
			doc.NextAttempt = next.UTC()
			doc.LastError = errMsg
			doc.Attempts++
		}
	}
	return nil
}

// Pending counts records not yet delivered.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

type recordStager interface {
	stageRecord(appoutbox.EventRecord)
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Queue = (*Outbox)(nil)
)
