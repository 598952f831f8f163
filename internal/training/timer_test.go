package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRestTimerDefault verifies that a new timer is stopped at the default preset.
func TestRestTimerDefault(t *testing.T) {
	rt := NewRestTimer(0)
	assert.Equal(t, DefaultRestPreset, rt.Preset())
	assert.Equal(t, DefaultRestPreset, rt.Remaining())
	assert.False(t, rt.Running())
	assert.False(t, rt.Tick(), "a stopped timer does not advance")
	assert.Equal(t, "01:30", rt.String())
	assert.Equal(t, 1.0, rt.Progress())
}

// TestRestTimerCountdown verifies that completion is reported exactly once.
func TestRestTimerCountdown(t *testing.T) {
	rt := NewRestTimer(DefaultRestPreset)
	rt.Select(60 * time.Second)
	assert.True(t, rt.Running())

	for range 59 {
		assert.False(t, rt.Tick())
	}
	assert.Equal(t, time.Second, rt.Remaining())
	assert.True(t, rt.Tick())
	assert.False(t, rt.Running())
	assert.False(t, rt.Tick())
	assert.Zero(t, rt.Remaining())
	assert.Zero(t, rt.Progress())
}

// TestRestTimerToggleReset verifies pausing, resuming, restarting and resetting.
func TestRestTimerToggleReset(t *testing.T) {
	rt := NewRestTimer(120 * time.Second)
	rt.Toggle()
	assert.True(t, rt.Running())
	rt.Tick()
	rt.Toggle()
	assert.False(t, rt.Running())
	rt.Tick()
	assert.Equal(t, 119*time.Second, rt.Remaining())
	assert.InDelta(t, 119.0/120.0, rt.Progress(), 1e-9)

	rt.Reset()
	assert.False(t, rt.Running())
	assert.Equal(t, 120*time.Second, rt.Remaining())

	rt.Select(time.Second)
	assert.True(t, rt.Tick())
	rt.Toggle()
	assert.True(t, rt.Running(), "toggling a finished timer restarts it")
	assert.Equal(t, time.Second, rt.Remaining())
}
