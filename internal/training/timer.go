package training

import "time"

// RestTimer counts down the rest between sets. It has no clock of its own:
// the caller calls Tick once per second while it wants the timer to advance.
// The zero value is not ready for use; call NewRestTimer.
type RestTimer struct {
	preset    time.Duration
	remaining time.Duration
	running   bool
}

// NewRestTimer returns a stopped timer loaded with preset. Non-positive presets
// fall back to DefaultRestPreset.
func NewRestTimer(preset time.Duration) *RestTimer {
	t := &RestTimer{}
	t.load(preset)
	return t
}

func (t *RestTimer) load(preset time.Duration) {
	if preset <= 0 {
		preset = DefaultRestPreset
	}
	t.preset = preset.Truncate(time.Second)
	if t.preset == 0 {
		t.preset = time.Second
	}
	t.remaining = t.preset
}

// Select loads a new preset and starts counting down from it.
func (t *RestTimer) Select(preset time.Duration) {
	t.load(preset)
	t.running = true
}

// Toggle pauses a running timer or resumes a paused one. A finished timer restarts.
func (t *RestTimer) Toggle() {
	if !t.running && t.remaining == 0 {
		t.remaining = t.preset
	}
	t.running = !t.running
}

// Reset stops the timer and refills it to the current preset.
func (t *RestTimer) Reset() {
	t.running = false
	t.remaining = t.preset
}

// Tick advances a running timer by one second. It returns true exactly once,
// on the tick that reaches zero.
func (t *RestTimer) Tick() bool {
	if !t.running {
		return false
	}
	t.remaining -= time.Second
	if t.remaining > 0 {
		return false
	}
	t.remaining = 0
	t.running = false
	return true
}

func (t *RestTimer) Running() bool            { return t.running }
func (t *RestTimer) Preset() time.Duration    { return t.preset }
func (t *RestTimer) Remaining() time.Duration { return t.remaining }

// Progress is the fraction of the preset still left, from 1 down to 0.
func (t *RestTimer) Progress() float64 {
	return float64(t.remaining) / float64(t.preset)
}

// String renders the remaining time as MM:SS.
func (t *RestTimer) String() string {
	return FormatTime(int(t.remaining / time.Second))
}
