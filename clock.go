package canopy

import "time"

// Clock is the monotonic tick source and blocking delay used for frame pacing
// and timer deadlines.
type Clock interface {
	// Now returns the time elapsed since the clock started.
	Now() time.Duration
	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// SystemClock reads the process monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting at zero now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns the time elapsed since NewSystemClock.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// Sleep blocks the calling goroutine for d.
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// ManualClock is a controllable clock for tests and headless runs. Sleep
// advances the clock instead of blocking.
type ManualClock struct {
	now   time.Duration
	slept []time.Duration
}

// NewManualClock creates a ManualClock reading start.
func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current mocked time.
func (c *ManualClock) Now() time.Duration {
	return c.now
}

// Sleep advances the clock by d and records the request.
func (c *ManualClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now += d
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.now += d
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Duration) {
	c.now = t
}

// Sleeps returns every duration passed to Sleep, in order.
func (c *ManualClock) Sleeps() []time.Duration {
	return c.slept
}
