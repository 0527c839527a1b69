package forwarder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/audit/mocks"
	"pawtrail/pkg/platform/audit/store/memory"
	"pawtrail/pkg/platform/circuit"
)

type ForwarderSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	sink    *mocks.MockSink
	metrics *Metrics
	now     time.Time
}

func TestForwarderSuite(t *testing.T) {
	suite.Run(t, new(ForwarderSuite))
}

func (s *ForwarderSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sink = mocks.NewMockSink(s.ctrl)
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.now = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ForwarderSuite) record(action audit.Action) audit.Record {
	return audit.Record{
		ID:        uuid.New(),
		Timestamp: s.now,
		Entry:     audit.Entry{Source: audit.SourceBackup, Action: action},
	}
}

func (s *ForwarderSuite) breaker() *circuit.Breaker {
	return circuit.New("archive",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
}

func (s *ForwarderSuite) TestForwardsAndCounts() {
	s.sink.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f := New("archive", s.sink, WithMetrics(s.metrics))

	s.Require().NoError(f.Write(context.Background(), s.record(audit.ActionBackupCreated)))
	s.Require().NoError(f.Write(context.Background(), s.record(audit.ActionBackupRestored)))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Forwarded.WithLabelValues("archive")))
}

func (s *ForwarderSuite) TestSamplingSkipsWithoutError() {
	sampler := NewSampler(1)
	sampler.SetRate(audit.ActionFilterApplied, 0)
	s.sink.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f := New("archive", s.sink, WithSampler(sampler), WithMetrics(s.metrics))

	s.Require().NoError(f.Write(context.Background(), s.record(audit.ActionFilterApplied)))
	s.Require().NoError(f.Write(context.Background(), s.record(audit.ActionBackupCreated)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Sampled.WithLabelValues("archive")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Forwarded.WithLabelValues("archive")))
}

func (s *ForwarderSuite) TestBreakerOpensAndRecovers() {
	outage := errors.New("connection refused")
	gomock.InOrder(
		s.sink.EXPECT().Write(gomock.Any(), gomock.Any()).Return(outage).Times(2),
		s.sink.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).Times(1),
	)
	f := New("archive", s.sink, WithBreaker(s.breaker()), WithMetrics(s.metrics))
	ctx := context.Background()

	s.Require().ErrorIs(f.Write(ctx, s.record(audit.ActionBackupCreated)), outage)
	s.Require().ErrorIs(f.Write(ctx, s.record(audit.ActionBackupCreated)), outage)
	s.True(f.Breaker().IsOpen())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BreakerState.WithLabelValues("archive")))

	// Open circuit: records are dropped without touching the sink.
	s.Require().NoError(f.Write(ctx, s.record(audit.ActionBackupCreated)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BreakerDropped.WithLabelValues("archive")))

	s.now = s.now.Add(2 * time.Minute)
	s.Require().NoError(f.Write(ctx, s.record(audit.ActionBackupCreated)))
	s.False(f.Breaker().IsOpen())
	s.Equal(0.0, testutil.ToFloat64(s.metrics.BreakerState.WithLabelValues("archive")))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Failures.WithLabelValues("archive")))
}

func TestFanout(t *testing.T) {
	first := memory.NewInMemoryStore()
	second := memory.NewInMemoryStore()
	broken := audit.SinkFunc(func(context.Context, audit.Record) error {
		return errors.New("stream unavailable")
	})

	rec := audit.Record{ID: uuid.New(), Timestamp: time.Now(), Entry: audit.Entry{Source: audit.SourceExport, Action: audit.ActionExportCreated}}
	err := Fanout{first, broken, second}.Write(context.Background(), rec)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream unavailable")
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len(), "later sinks still receive the record")
	assert.NoError(t, Fanout{}.Write(context.Background(), rec))
}

func TestSampler(t *testing.T) {
	t.Run("rates are clamped", func(t *testing.T) {
		s := NewSampler(1.5)
		assert.Equal(t, 1.0, s.Rate(audit.ActionBackupCreated))
		s.SetDefaultRate(-1)
		assert.Equal(t, 0.0, s.Rate(audit.ActionBackupCreated))
	})

	t.Run("override wins over default", func(t *testing.T) {
		s := NewSampler(0)
		s.SetRate(audit.ActionMigrationFailed, 1)
		assert.True(t, s.Keep(audit.ActionMigrationFailed))
		assert.False(t, s.Keep(audit.ActionMigrationStarted))
	})

	t.Run("fractional rates use the roll", func(t *testing.T) {
		s := NewSampler(0.25)
		s.roll = func() float64 { return 0.2 }
		assert.True(t, s.Keep(audit.ActionFilterApplied))
		s.roll = func() float64 { return 0.3 }
		assert.False(t, s.Keep(audit.ActionFilterApplied))
	})
}
