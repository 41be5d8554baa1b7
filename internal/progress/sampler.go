package progress

import "time"

// Sampler limits how often fractional progress events are forwarded. An event
// passes when the minimum interval has elapsed since the last forwarded one
// and the fraction advanced by at least the minimum delta. The first event
// and completion (fraction >= 1) always pass; regressions never do.
type Sampler struct {
	interval time.Duration
	minDelta float64
	now      func() time.Time

	started bool
	last    float64
	lastAt  time.Time
}

// NewSampler builds a sampler. A zero interval disables time throttling.
func NewSampler(interval time.Duration, minDelta float64) *Sampler {
	return &Sampler{interval: interval, minDelta: minDelta, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Sampler) WithClock(now func() time.Time) *Sampler {
	if now != nil {
		s.now = now
	}
	return s
}

// Allow reports whether fraction should be forwarded and records it if so.
func (s *Sampler) Allow(fraction float64) bool {
	now := s.now()
	if !s.started {
		s.record(fraction, now)
		return true
	}
	if fraction <= s.last {
		return false
	}
	if fraction >= 1 {
		s.record(fraction, now)
		return true
	}
	if now.Sub(s.lastAt) < s.interval || fraction-s.last < s.minDelta {
		return false
	}
	s.record(fraction, now)
	return true
}

func (s *Sampler) record(fraction float64, at time.Time) {
	s.started = true
	s.last = fraction
	s.lastAt = at
}
