package forwarder

import (
	"math/rand/v2"
	"sync"

	audit "pawtrail/pkg/platform/audit"
)

// Sampler keeps a fraction of records per action. High-volume actions such as
// filter_applied can be sampled down before they reach an archive.
type Sampler struct {
	mu           sync.RWMutex
	defaultRate  float64
	rateByAction map[audit.Action]float64
	roll         func() float64
}

// NewSampler creates a sampler with the given default rate.
// Rate should be between 0.0 (keep nothing) and 1.0 (keep everything).
func NewSampler(defaultRate float64) *Sampler {
	return &Sampler{
		defaultRate:  clampRate(defaultRate),
		rateByAction: make(map[audit.Action]float64),
		roll:         rand.Float64, //nolint:gosec // sampling doesn't need crypto rand
	}
}

// Keep reports whether a record with action should be forwarded.
func (s *Sampler) Keep(action audit.Action) bool {
	rate := s.Rate(action)
	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return s.roll() < rate
}

// SetRate overrides the rate for one action.
func (s *Sampler) SetRate(action audit.Action, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateByAction[action] = clampRate(rate)
}

// SetDefaultRate changes the rate for actions without an override.
func (s *Sampler) SetDefaultRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultRate = clampRate(rate)
}

// Rate returns the effective rate for action.
func (s *Sampler) Rate(action audit.Action) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rate, ok := s.rateByAction[action]; ok {
		return rate
	}
	return s.defaultRate
}

func clampRate(rate float64) float64 {
	return min(max(rate, 0), 1)
}
