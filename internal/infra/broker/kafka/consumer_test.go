package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

type flakyHandler struct {
	failures int
	calls    int
}

func (h *flakyHandler) Handle(context.Context, *sarama.ConsumerMessage) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("broker hiccup")
	}
	return nil
}

func testConsumer(h MessageHandler, backoff ...time.Duration) *Consumer {
	return &Consumer{handler: h, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Backoff: backoff}
}

func TestDeliverRetriesUntilHandled(t *testing.T) {
	h := &flakyHandler{failures: 2}
	c := testConsumer(h, time.Millisecond, time.Millisecond)

	assert.True(t, c.deliver(context.Background(), &sarama.ConsumerMessage{Topic: "cars.events.v1"}))
	assert.Equal(t, 3, h.calls)
}

func TestDeliverSkipsAfterBackoffIsSpent(t *testing.T) {
	h := &flakyHandler{failures: 10}
	c := testConsumer(h, time.Millisecond)

	assert.True(t, c.deliver(context.Background(), &sarama.ConsumerMessage{Topic: "cars.events.v1"}))
	assert.Equal(t, 2, h.calls)
}

func TestDeliverStopsWhenContextEnds(t *testing.T) {
	h := &flakyHandler{failures: 10}
	c := testConsumer(h, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, c.deliver(ctx, &sarama.ConsumerMessage{}))
	assert.Equal(t, 1, h.calls)
}
