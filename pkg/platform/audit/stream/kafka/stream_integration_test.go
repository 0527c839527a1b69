//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"pawtrail/pkg/testutil/containers"
)

func TestStream_Redpanda(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	const topic = "pawtrail.audit.test"
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(rp.Brokers, topic)
	require.NoError(t, err)
	defer client.Close()

	adm := kadm.NewClient(client)
	require.NoError(t, EnsureTopic(ctx, adm, topic, 1, 1))
	require.NoError(t, EnsureTopic(ctx, adm, topic, 1, 1), "existing topic is not an error")

	rec := testRecord()
	require.NoError(t, New(client, topic).Write(ctx, rec))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())

	var got []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) { got = append(got, r) })
	require.Len(t, got, 1)

	decoded, err := DecodeRecord(got[0])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.Equal(t, rec.Entry.Target, decoded.Entry.Target)
}
