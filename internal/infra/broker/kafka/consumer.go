package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer feeds a consumer group's messages to one handler. Offsets are
// cumulative per partition, so a message that keeps failing is retried with
// Backoff and then skipped rather than blocking the partition.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
	Backoff []time.Duration
}

func NewConsumer(brokers []string, groupID string, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = groupID
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Offsets.AutoCommit.Interval = time.Second
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		group:   group,
		handler: handler,
		logger:  logger.With("consumer_group", groupID),
		Backoff: []time.Duration{100 * time.Millisecond, time.Second},
	}, nil
}

// Run blocks until ctx ends or the group is closed. Consume returns on every
// rebalance, so it is called in a loop.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for ctx.Err() == nil {
		err := c.group.Consume(ctx, topics, claimHandler{Consumer: c})
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return nil
		case err != nil && ctx.Err() == nil:
			return err
		}
	}
	return ctx.Err()
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

// deliver hands msg to the handler, retrying after each Backoff step. It
// reports false only when ctx ended before the message was settled.
func (c *Consumer) deliver(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	for attempt := 0; ; attempt++ {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return true
		}
		if attempt >= len(c.Backoff) {
			c.logger.ErrorContext(ctx, "kafka message skipped",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "attempts", attempt+1, "error", err)
			return true
		}
		c.logger.WarnContext(ctx, "kafka message failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.Backoff[attempt]):
		}
	}
}

type claimHandler struct {
	*Consumer
}

func (claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if !h.deliver(sess.Context(), msg) {
				return nil
			}
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}
