package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_Defaults(t *testing.T) {
	b := New("mirror")
	assert.Equal(t, "mirror", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())

	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "four failures stay under the default threshold")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

// step is one call against the breaker: fail or succeed, and the outcome it
// should report.
type step struct {
	fail      bool
	useBackup bool
	opened    bool
	closed    bool
	openAfter bool
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the third consecutive failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{fail: true},
				{fail: true},
				{fail: true, useBackup: true, opened: true, openAfter: true},
			},
		},
		{
			name: "success resets the failure run",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{fail: true},
				{fail: true},
				{},
				{fail: true},
				{fail: true},
				{fail: true, useBackup: true, opened: true, openAfter: true},
			},
		},
		{
			name: "closes after the success threshold",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, useBackup: true, opened: true, openAfter: true},
				{openAfter: true},
				{closed: true},
			},
		},
		{
			name: "failure while open restarts the success run",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			steps: []step{
				{fail: true, useBackup: true, opened: true, openAfter: true},
				{openAfter: true},
				{openAfter: true},
				{fail: true, useBackup: true, openAfter: true},
				{openAfter: true},
				{openAfter: true},
				{closed: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("archive", tt.opts...)
			for i, s := range tt.steps {
				if s.fail {
					useBackup, change := b.RecordFailure()
					assert.Equal(t, s.useBackup, useBackup, "step %d fallback", i)
					assert.Equal(t, s.opened, change.Opened, "step %d opened", i)
				} else {
					usePrimary, change := b.RecordSuccess()
					assert.Equal(t, !s.openAfter, usePrimary, "step %d primary", i)
					assert.Equal(t, s.closed, change.Closed, "step %d closed", i)
				}
				require.Equal(t, s.openAfter, b.IsOpen(), "step %d state", i)
			}
		})
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := New("stream", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_AllowsOneTrialPerCooldown(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	b := New("archive",
		WithFailureThreshold(2),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	assert.False(t, b.Allow(), "cooldown not elapsed")

	now = now.Add(11 * time.Second)
	assert.True(t, b.Allow(), "first trial after cooldown")
	assert.False(t, b.Allow(), "only one trial per window")

	// A failed trial pushes the next one out by another cooldown.
	b.RecordFailure()
	now = now.Add(5 * time.Second)
	assert.False(t, b.Allow())
	now = now.Add(6 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreaker_HalfOpenAllowsUntilClosed(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	b := New("stream",
		WithFailureThreshold(1),
		WithSuccessThreshold(3),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	require.True(t, b.IsOpen())

	now = now.Add(11 * time.Second)
	require.True(t, b.Allow())
	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	// Recovery must not wait another cooldown per success.
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	b.RecordSuccess()
	assert.True(t, b.Allow())
	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	b := New("mirror",
		WithFailureThreshold(1),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	now = now.Add(11 * time.Second)
	require.True(t, b.Allow())
	b.RecordSuccess()
	require.True(t, b.Allow())

	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, b.Allow(), "a failure while half-open waits a full cooldown again")
	now = now.Add(11 * time.Second)
	assert.True(t, b.Allow())
}
