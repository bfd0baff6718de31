package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCountdown_LinearWithoutPause(t *testing.T) {
	c := NewCountdown(5*time.Second, t0)

	assert.InDelta(t, 100, c.Progress(t0), 0.001)
	assert.InDelta(t, 50, c.Progress(t0.Add(2500*time.Millisecond)), 0.001)
	assert.False(t, c.Expired(t0.Add(4999*time.Millisecond)))
	assert.True(t, c.Expired(t0.Add(5*time.Second)))
	assert.Equal(t, time.Duration(0), c.Remaining(t0.Add(time.Minute)))
}

func TestCountdown_PauseResumeKeepsRemaining(t *testing.T) {
	c := NewCountdown(5*time.Second, t0)

	assert.True(t, c.Pause(t0.Add(2500*time.Millisecond)))
	assert.False(t, c.Pause(t0.Add(2600*time.Millisecond)))

	// Frozen while paused, however long the pointer stays.
	assert.Equal(t, 2500*time.Millisecond, c.Remaining(t0.Add(time.Hour)))
	assert.InDelta(t, 50, c.Progress(t0.Add(time.Hour)), 0.001)

	resumeAt := t0.Add(37 * time.Second)
	assert.True(t, c.Resume(resumeAt))
	assert.False(t, c.Resume(resumeAt))
	assert.Equal(t, 2500*time.Millisecond, c.Remaining(resumeAt))
	assert.Equal(t, time.Second, c.Remaining(resumeAt.Add(1500*time.Millisecond)))
	assert.True(t, c.Expired(resumeAt.Add(2500*time.Millisecond)))
}

func TestCountdown_RepeatedPauseCyclesDoNotDrift(t *testing.T) {
	c := NewCountdown(4*time.Second, t0)
	now := t0
	for i := 0; i < 4; i++ {
		now = now.Add(500 * time.Millisecond)
		c.Pause(now)
		now = now.Add(10 * time.Second)
		c.Resume(now)
	}
	assert.Equal(t, 2*time.Second, c.Remaining(now))
}

func TestCountdown_Sticky(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		c := NewCountdown(d, t0)
		assert.True(t, c.Sticky())
		assert.Equal(t, float64(100), c.Progress(t0.Add(time.Hour)))
		assert.False(t, c.Expired(t0.Add(time.Hour)))
		assert.False(t, c.Pause(t0))
	}
}
