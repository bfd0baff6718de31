package notify

import "time"

// Countdown tracks the remaining life of one notification. Remaining time is
// always derived from the value captured at the last resume and the time
// elapsed since then, so pause cycles do not drift.
type Countdown struct {
	duration  time.Duration
	remaining time.Duration
	resumedAt time.Time
	paused    bool
}

func NewCountdown(d time.Duration, now time.Time) *Countdown {
	if d < 0 {
		d = 0
	}
	return &Countdown{duration: d, remaining: d, resumedAt: now}
}

func (c *Countdown) Duration() time.Duration { return c.duration }

func (c *Countdown) Sticky() bool { return c.duration <= 0 }

func (c *Countdown) Paused() bool { return c.paused }

func (c *Countdown) Remaining(now time.Time) time.Duration {
	if c.Sticky() {
		return 0
	}
	if c.paused {
		return c.remaining
	}
	r := c.remaining - now.Sub(c.resumedAt)
	if r < 0 {
		return 0
	}
	return r
}

// Progress is the share of life left, from 100 down to 0. Sticky countdowns stay at 100.
func (c *Countdown) Progress(now time.Time) float64 {
	if c.Sticky() {
		return 100
	}
	return float64(c.Remaining(now)) / float64(c.duration) * 100
}

func (c *Countdown) Expired(now time.Time) bool {
	return !c.Sticky() && c.Remaining(now) == 0
}

// Pause freezes the remaining time. It reports false when there is nothing to pause.
func (c *Countdown) Pause(now time.Time) bool {
	if c.Sticky() || c.paused {
		return false
	}
	c.remaining = c.Remaining(now)
	c.paused = true
	return true
}

// Resume re-anchors the countdown at now against the frozen remaining time.
func (c *Countdown) Resume(now time.Time) bool {
	if !c.paused {
		return false
	}
	c.resumedAt = now
	c.paused = false
	return true
}
