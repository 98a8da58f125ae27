package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"
)

// Deduper remembers event ids already handled by a consumer. Seen records
// the id; Release forgets it again when handling failed.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CatalogTopics are the topics whose events change what the catalog shows.
func CatalogTopics(prefix string) []string {
	return []string{prefix + "car.events.v1", prefix + "review.events.v1"}
}

// CatalogEvents invalidates the catalog cache once per delivered event.
type CatalogEvents struct {
	Inbox  Deduper
	Cache  Invalidator
	Logger *slog.Logger
}

type cloudEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Subject string `json:"subject"`
}

func (h *CatalogEvents) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil || strings.TrimSpace(evt.ID) == "" {
		// Poison messages are acknowledged so they do not block the partition.
		h.logger().WarnContext(ctx, "dropping malformed event", "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx); err != nil {
			if h.Inbox != nil {
				_ = h.Inbox.Release(ctx, evt.ID)
			}
			return err
		}
	}
	h.logger().DebugContext(ctx, "catalog cache invalidated", "type", evt.Type, "subject", evt.Subject)
	return nil
}

func (h *CatalogEvents) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*CatalogEvents)(nil)
