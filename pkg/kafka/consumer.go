// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. The consumer hands raw documents to a MessageHandler;
// the producer publishes JSON events.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// MessageHandler is invoked for each message. Returning an error makes the
// consumer call it again for the same message, with backoff, until it
// succeeds or the consumer stops; later messages wait. A
// resilience.Permanent error stops the consumer without committing.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads documents from a topic as part of a consumer group.
type Consumer struct {
	reader  messageReader
	handler MessageHandler
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for topic. A group without committed
// offsets starts from the oldest message so no document is skipped.
func NewConsumer(cfg config.KafkaConfig, topic string, retry resilience.RetryConfig, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(r, topic, retry, handler)
}

func newConsumer(r messageReader, topic string, retry resilience.RetryConfig, handler MessageHandler) *Consumer {
	return &Consumer{
		reader:  r,
		handler: handler,
		retry:   retry,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Start fetches and handles messages until ctx is cancelled. A message is
// committed only after its handler succeeded; commits are retried with
// backoff.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		log := c.logger.With(
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)
		log.Debug("message received", "value_size", len(msg.Value))
		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopping before message was processed", "reason", ctx.Err())
				return nil
			}
			log.Error("failed to process message", "error", err)
			return err
		}
		err = resilience.Retry(ctx, "kafka-commit", c.retry, func() error {
			return c.reader.CommitMessages(ctx, msg)
		})
		if err != nil {
			log.Error("failed to commit message", "error", err)
		}
	}
}

// handle runs the handler for msg until it succeeds or ctx is done.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	cfg := c.retry
	cfg.MaxAttempts = math.MaxInt
	return resilience.Retry(ctx, "kafka-handle", cfg, func() error {
		return c.handler(ctx, msg.Key, msg.Value)
	})
}
