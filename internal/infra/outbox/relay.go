package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrRelayNotConfigured = errors.New("outbox: relay missing dependencies")

// Producer publishes a message to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Relay moves queued records to the broker as CloudEvents. Topics are
// "<aggregate>.events.v1", e.g. booking.requested goes to booking.events.v1.
type Relay struct {
	Queue       Queue
	Producer    Producer
	TopicPrefix string
	Source      string
	ID          string
	BatchSize   int
	Backoff     []time.Duration
	Logger      *slog.Logger
}

// RunOnce delivers up to BatchSize records and reports how many were sent.
// Delivery failures are rescheduled rather than returned.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	if r.Queue == nil || r.Producer == nil {
		return 0, ErrRelayNotConfigured
	}
	sent := 0
	for i := 0; i < r.batchSize(); i++ {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		doc, err := r.Queue.Claim(ctx, r.workerID())
		if err != nil {
			return sent, err
		}
		if doc == nil {
			return sent, nil
		}
		if r.deliver(ctx, doc) {
			sent++
		}
	}
	return sent, nil
}

func (r *Relay) deliver(ctx context.Context, doc *EventDocument) bool {
	payload, headers, err := r.format(doc)
	if err == nil {
		err = r.Producer.Publish(ctx, TopicFor(r.TopicPrefix, doc.Name), doc.Aggregate, payload, headers)
	}
	if err != nil {
		r.logger().WarnContext(ctx, "outbox delivery failed", "event", doc.Name, "id", doc.ID, "attempts", doc.Attempts+1, "error", err)
		_ = r.Queue.MarkFailed(ctx, doc.ID, r.nextRetry(doc.Attempts), err.Error())
		return false
	}
	if err := r.Queue.MarkSent(ctx, doc.ID); err != nil {
		r.logger().WarnContext(ctx, "outbox mark sent failed", "id", doc.ID, "error", err)
	}
	return true
}

func (r *Relay) format(doc *EventDocument) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          r.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	headers["ce_type"] = doc.Name + ".v1"
	return payload, headers, nil
}

// TopicFor maps an event name to its topic.
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func (r *Relay) workerID() string {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r.ID
}

func (r *Relay) batchSize() int {
	if r.BatchSize <= 0 {
		return 50
	}
	return r.BatchSize
}

func (r *Relay) nextRetry(attempts int) time.Time {
	now := time.Now()
	switch {
	case attempts < len(r.Backoff):
		return now.Add(r.Backoff[attempts])
	case len(r.Backoff) > 0:
		return now.Add(r.Backoff[len(r.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (r *Relay) source() string {
	if r.Source != "" {
		return r.Source
	}
	return "app://rentacar"
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// LogProducer writes events to the log; used when no broker is configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "type", headers["ce_type"], "bytes", len(payload))
	return nil
}
