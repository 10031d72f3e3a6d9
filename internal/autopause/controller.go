package autopause

import (
	"fmt"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// DefaultWindow is the minimum dwell time a clear condition must hold
// before output resumes. Prevents pause/resume flapping when a sensor
// value is noisy near a threshold.
const DefaultWindow = 4 * time.Second

// DefaultImminent is the maneuver distance (meters) treated as imminent.
const DefaultImminent = 150.0

// Decision is one auto-pause evaluation result. At most one of Pause and
// Resume is set.
type Decision struct {
	Pause  bool
	Resume bool
	Reason string
}

// Controller watches SafetyContext transitions and decides when to force
// pause and when to allow resume. It owns the hysteresis state; the level
// classification itself is memoryless.
type Controller struct {
	window   time.Duration
	imminent float64

	paused     bool
	clearSince time.Time
}

// New creates a Controller. Non-positive parameters take defaults.
func New(window time.Duration, imminent float64) *Controller {
	if window <= 0 {
		window = DefaultWindow
	}
	if imminent <= 0 {
		imminent = DefaultImminent
	}
	return &Controller{window: window, imminent: imminent}
}

// Paused reports whether the controller currently holds output paused.
func (c *Controller) Paused() bool { return c.paused }

// Decide evaluates one context snapshot. outputActive tells the
// controller whether there is anything to pause. Resume fires exactly
// once per pause episode, and only after the clear condition has held
// for the full hysteresis window.
func (c *Controller) Decide(ctx model.SafetyContext, outputActive bool, now time.Time) Decision {
	unsafe, reason := c.unsafeCondition(ctx)

	if !c.paused {
		if unsafe && outputActive {
			c.paused = true
			c.clearSince = time.Time{}
			return Decision{Pause: true, Reason: reason}
		}
		return Decision{}
	}

	// Paused: condition must stay clear for the whole window.
	if unsafe {
		c.clearSince = time.Time{}
		return Decision{}
	}
	if c.clearSince.IsZero() {
		c.clearSince = now
		return Decision{}
	}
	if now.Sub(c.clearSince) >= c.window {
		c.paused = false
		c.clearSince = time.Time{}
		return Decision{Resume: true, Reason: "condition clear for hysteresis window"}
	}
	return Decision{}
}

// Reset clears all episode state. Used when the machine leaves
// AutoPaused by another path (e.g. emergency stop).
func (c *Controller) Reset() {
	c.paused = false
	c.clearSince = time.Time{}
}

func (c *Controller) unsafeCondition(ctx model.SafetyContext) (bool, string) {
	if ctx.Level >= model.Highway {
		return true, fmt.Sprintf("safety level %s", ctx.Level)
	}
	if ctx.IsNavigating && ctx.ManeuverDistance >= 0 && ctx.ManeuverDistance <= c.imminent {
		return true, fmt.Sprintf("maneuver in %.0fm", ctx.ManeuverDistance)
	}
	return false, ""
}
