// Package timing turns a free-running millisecond counter into per-cycle
// integration steps.
//
// The counter is 32 bits wide and wraps after ~49.7 days. Elapsed time is
// always computed by unsigned subtraction, which stays correct across the
// wrap as long as two reads are less than one full period apart.
package timing

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Counter is a monotonic millisecond counter.
type Counter interface {
	Millis() uint32
}

// Elapsed returns now-last in milliseconds, wraparound safe.
func Elapsed(now, last uint32) uint32 {
	return now - last
}

// ClockCounter derives a wrapping millisecond counter from a clock.Clock.
type ClockCounter struct {
	clk   clock.Clock
	start time.Time
}

// NewClockCounter starts a counter at zero on clk.
func NewClockCounter(clk clock.Clock) *ClockCounter {
	return &ClockCounter{clk: clk, start: clk.Now()}
}

// Millis implements Counter. The int64 millisecond count is truncated to
// 32 bits on purpose: that is the wrap.
func (c *ClockCounter) Millis() uint32 {
	return uint32(c.clk.Since(c.start).Milliseconds())
}

// State is the per-cycle timing bookkeeping of the control loop.
type State struct {
	LastReadTime uint32
	DeltaTime    float64 // seconds since the previous Tick
	started      bool
}

// Tick records now and returns the seconds elapsed since the previous Tick.
// The first Tick returns 0.
func (s *State) Tick(now uint32) float64 {
	if !s.started {
		s.started = true
		s.LastReadTime = now
		s.DeltaTime = 0
		return 0
	}
	s.DeltaTime = float64(Elapsed(now, s.LastReadTime)) / 1000.0
	s.LastReadTime = now
	return s.DeltaTime
}
