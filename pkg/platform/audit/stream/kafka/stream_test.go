package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pawtrail/pkg/platform/audit"
)

type fakeProducer struct {
	produced []*kgo.Record
	err      error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.produced = append(f.produced, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func testRecord() audit.Record {
	return audit.Record{
		ID:        uuid.New(),
		Timestamp: time.Date(2026, 7, 1, 9, 30, 0, 123000000, time.UTC),
		Entry: audit.Entry{
			Source:   audit.SourceExport,
			Action:   audit.ActionExportCreated,
			Category: audit.CategoryCompliance,
			Target:   "clients.csv",
			Tags:     []string{"weekly"},
		},
	}
}

func TestStream_Write(t *testing.T) {
	producer := &fakeProducer{}
	stream := New(producer, "pawtrail.audit")
	rec := testRecord()

	require.NoError(t, stream.Write(context.Background(), rec))
	require.Len(t, producer.produced, 1)

	msg := producer.produced[0]
	assert.Equal(t, "pawtrail.audit", msg.Topic)
	assert.Equal(t, rec.ID.String(), string(msg.Key))
	assert.Contains(t, msg.Headers, kgo.RecordHeader{Key: "audit-source", Value: []byte("export")})
	assert.Contains(t, msg.Headers, kgo.RecordHeader{Key: "audit-category", Value: []byte("compliance")})

	decoded, err := DecodeRecord(msg)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.True(t, rec.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, rec.Entry, decoded.Entry)
}

func TestStream_WriteError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker not available")}
	err := New(producer, "pawtrail.audit").Write(context.Background(), testRecord())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker not available")
}

func TestDecodeRecord_Invalid(t *testing.T) {
	_, err := DecodeRecord(&kgo.Record{Value: []byte("not json")})
	assert.Error(t, err)
}
