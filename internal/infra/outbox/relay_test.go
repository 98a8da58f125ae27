package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentacar/internal/app/outbox"
	infraoutbox "rentacar/internal/infra/outbox"
	"rentacar/internal/infra/storage/memory"
)

type captured struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	fail error
	out  []captured
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.out = append(p.out, captured{topic, key, payload, headers})
	return nil
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "booking.events.v1", infraoutbox.TopicFor("", "booking.requested"))
	assert.Equal(t, "dev.calendar.events.v1", infraoutbox.TopicFor("dev.", "calendar.held"))
}

func TestRelayPublishesCloudEvents(t *testing.T) {
	box := memory.NewOutbox()
	ctx := context.Background()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{
		ID:         "e1",
		Name:       "booking.requested",
		Aggregate:  "b1",
		Payload:    []byte(`{"BookingID":"b1"}`),
		OccurredAt: time.Now(),
	}))
	producer := &fakeProducer{}
	relay := &infraoutbox.Relay{Queue: box, Producer: producer}

	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, producer.out, 1)
	assert.Equal(t, "booking.events.v1", producer.out[0].topic)
	assert.Equal(t, "b1", producer.out[0].key)
	assert.Equal(t, "application/cloudevents+json", producer.out[0].headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(producer.out[0].payload, &evt))
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "e1", evt["id"])
	assert.Equal(t, 0, box.Pending())
}

func TestRelayReschedulesFailures(t *testing.T) {
	box := memory.NewOutbox()
	ctx := context.Background()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "car.listed", Payload: []byte(`{}`)}))
	relay := &infraoutbox.Relay{Queue: box, Producer: &fakeProducer{fail: errors.New("broker down")}, Backoff: []time.Duration{time.Hour}}

	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, box.Pending())

	n, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "record waits for its backoff")
}
