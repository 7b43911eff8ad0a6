package session

import (
	"strings"
	"sync"
	"unicode"
)

type CountdownState string

const (
	CountdownIdle     CountdownState = "idle"
	CountdownRunning  CountdownState = "running"
	CountdownPaused   CountdownState = "paused"
	CountdownFinished CountdownState = "finished"
)

// ParseRestSeconds reads the free-text rest of an exercise. All digits
// are concatenated into one number; any "min" in the text makes it
// minutes ("90" -> 90, "2min" -> 120). Text without digits counts as 0.
func ParseRestSeconds(rest string) int {
	var digits strings.Builder
	for _, r := range rest {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	seconds := 0
	for _, r := range digits.String() {
		seconds = seconds*10 + int(r-'0')
	}

	if strings.Contains(strings.ToLower(rest), "min") {
		seconds *= 60
	}
	return seconds
}

// Countdown is the rest timer between sets. At most one runs at a time,
// bound to a single exercise. It is advanced from outside via Tick, one
// call per second.
type Countdown struct {
	mu         sync.Mutex
	state      CountdownState
	exerciseID string
	initial    int
	remaining  int

	// cue fires when the countdown runs out, before onFinish
	cue      func(exerciseID string)
	onFinish func(exerciseID string)
}

func NewCountdown(cue, onFinish func(exerciseID string)) *Countdown {
	if cue == nil {
		cue = func(string) {}
	}
	if onFinish == nil {
		onFinish = func(string) {}
	}
	return &Countdown{
		state:    CountdownIdle,
		cue:      cue,
		onFinish: onFinish,
	}
}

// Start begins a rest countdown for an exercise. Starting for the
// exercise that is already counting cancels it without restarting;
// starting for another exercise replaces the running countdown. A
// non-positive duration is a no-op.
func (c *Countdown) Start(exerciseID string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CountdownRunning || c.state == CountdownPaused {
		if c.exerciseID == exerciseID {
			c.resetLocked()
			return
		}
		c.resetLocked()
	}

	if seconds <= 0 {
		return
	}

	c.state = CountdownRunning
	c.exerciseID = exerciseID
	c.initial = seconds
	c.remaining = seconds
}

// Tick advances the countdown by one second. Reaching zero fires the
// audible cue and the finish callback; the next tick clears the
// finished display.
func (c *Countdown) Tick() {
	c.mu.Lock()

	switch c.state {
	case CountdownFinished:
		c.resetLocked()
		c.mu.Unlock()
		return
	case CountdownRunning:
	default:
		c.mu.Unlock()
		return
	}

	c.remaining--
	if c.remaining > 0 {
		c.mu.Unlock()
		return
	}

	c.remaining = 0
	c.state = CountdownFinished
	exerciseID := c.exerciseID
	cue, onFinish := c.cue, c.onFinish
	c.mu.Unlock()

	cue(exerciseID)
	onFinish(exerciseID)
}

func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CountdownRunning {
		c.state = CountdownPaused
	}
}

func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CountdownPaused {
		c.state = CountdownRunning
	}
}

// Reset puts a running or paused countdown back to its initial value,
// still counting.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CountdownRunning || c.state == CountdownPaused {
		c.remaining = c.initial
		c.state = CountdownRunning
	}
}

// Dismiss discards the countdown early, no cue, no set counted.
func (c *Countdown) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Countdown) ExerciseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exerciseID
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) resetLocked() {
	c.state = CountdownIdle
	c.exerciseID = ""
	c.initial = 0
	c.remaining = 0
}
