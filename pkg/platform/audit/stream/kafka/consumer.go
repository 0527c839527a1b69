package kafka

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "pawtrail/pkg/platform/audit"
)

// Fetcher is the subset of *kgo.Client the consumer needs.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// RecordHandler handles one decoded audit record.
type RecordHandler interface {
	Handle(ctx context.Context, record audit.Record) error
}

// Consumer reads audit records back from the topic and hands them to a
// handler. Offsets are committed once a whole poll has been handled; a handler
// error stops the consumer so the batch is read again after a restart.
type Consumer struct {
	client  Fetcher
	handler RecordHandler
	logger  *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the consumer logger.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConsumer creates a consumer over client.
func NewConsumer(client Fetcher, handler RecordHandler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:  client,
		handler: handler,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewConsumerClient creates a franz-go group consumer for topic with manual
// offset commits.
func NewConsumerClient(brokers []string, topic, group string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return client, nil
}

// Run polls until ctx is done or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handleErr error
		fetches.EachRecord(func(msg *kgo.Record) {
			if handleErr != nil {
				return
			}
			record, err := DecodeRecord(msg)
			if err != nil {
				// Malformed messages are skipped so they do not block the partition.
				c.logger.WarnContext(ctx, "skipping undecodable audit record",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				return
			}
			if err := c.handler.Handle(ctx, record); err != nil {
				handleErr = fmt.Errorf("handle audit record %s: %w", record.ID, err)
			}
		})
		if handleErr != nil {
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			return fmt.Errorf("commit offsets: %w", err)
		}
	}
}
