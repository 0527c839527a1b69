// Package kafka publishes audit records to a Kafka topic with franz-go.
// Records are keyed by event id and carry the same JSON body the logs export.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/auditlog"
)

const (
	headerSource   = "audit-source"
	headerAction   = "audit-action"
	headerCategory = "audit-category"

	deliveryTimeout = 10 * time.Second
)

// Producer is the subset of *kgo.Client the stream needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Stream is a Sink that produces each record synchronously.
type Stream struct {
	producer Producer
	topic    string
}

// New creates a stream writing to topic.
func New(producer Producer, topic string) *Stream {
	return &Stream{producer: producer, topic: topic}
}

// NewClient creates a franz-go client tuned for audit publishing. Records that
// cannot be delivered within deliveryTimeout fail instead of retrying forever.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.ProduceRequestTimeout(deliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// Write implements audit.Sink.
func (s *Stream) Write(ctx context.Context, record audit.Record) error {
	msg, err := EncodeRecord(s.topic, record)
	if err != nil {
		return err
	}
	if err := s.producer.ProduceSync(ctx, msg).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// EncodeRecord builds the Kafka message for record.
func EncodeRecord(topic string, record audit.Record) (*kgo.Record, error) {
	value, err := json.Marshal(record.Event())
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(record.ID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerSource, Value: []byte(record.Entry.Source)},
			{Key: headerAction, Value: []byte(record.Entry.Action)},
			{Key: headerCategory, Value: []byte(record.Entry.Category)},
		},
	}, nil
}

// DecodeRecord parses a message produced by Write.
func DecodeRecord(msg *kgo.Record) (audit.Record, error) {
	var event auditlog.Event[audit.Entry]
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return audit.Record{}, fmt.Errorf("decode audit record: %w", err)
	}
	if event.ID == uuid.Nil {
		id, err := uuid.ParseBytes(msg.Key)
		if err != nil {
			return audit.Record{}, fmt.Errorf("decode audit record key: %w", err)
		}
		event.ID = id
	}
	return audit.RecordFromEvent(event), nil
}

// EnsureTopic creates topic when it does not exist yet.
func EnsureTopic(ctx context.Context, adm *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}
