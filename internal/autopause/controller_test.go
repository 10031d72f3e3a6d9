package autopause

import (
	"testing"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

func TestPausesOnHighLevelWithActiveOutput(t *testing.T) {
	c := New(4*time.Second, 150)
	now := time.Now().UTC()

	d := c.Decide(model.SafetyContext{Level: model.Highway, ManeuverDistance: model.UnknownDistance}, true, now)
	if !d.Pause {
		t.Fatalf("expected pause, got %+v", d)
	}
	if !c.Paused() {
		t.Error("controller should hold paused state")
	}

	// Same condition with nothing playing: no pause.
	c2 := New(4*time.Second, 150)
	d = c2.Decide(model.SafetyContext{Level: model.Highway, ManeuverDistance: model.UnknownDistance}, false, now)
	if d.Pause {
		t.Error("nothing to pause, should not fire")
	}
}

func TestPausesOnImminentManeuver(t *testing.T) {
	c := New(4*time.Second, 150)
	now := time.Now().UTC()

	ctx := model.SafetyContext{Level: model.Moderate, IsNavigating: true, ManeuverDistance: 90}
	if d := c.Decide(ctx, true, now); !d.Pause {
		t.Fatalf("expected pause for maneuver at 90m, got %+v", d)
	}
}

func TestResumeFiresExactlyOnceAfterFullWindow(t *testing.T) {
	c := New(4*time.Second, 150)
	now := time.Now().UTC()

	unsafe := model.SafetyContext{Level: model.Highway, ManeuverDistance: model.UnknownDistance}
	clear := model.SafetyContext{Level: model.LowSpeed, ManeuverDistance: model.UnknownDistance}

	if d := c.Decide(unsafe, true, now); !d.Pause {
		t.Fatal("expected initial pause")
	}

	// Clear condition starts the dwell clock; no resume yet.
	if d := c.Decide(clear, false, now.Add(1*time.Second)); d.Resume {
		t.Error("resume before window elapsed")
	}
	// Still inside the window.
	if d := c.Decide(clear, false, now.Add(3*time.Second)); d.Resume {
		t.Error("resume before window elapsed")
	}
	// Window complete.
	d := c.Decide(clear, false, now.Add(5*time.Second))
	if !d.Resume {
		t.Fatalf("expected resume after full window, got %+v", d)
	}
	if c.Paused() {
		t.Error("controller should be unpaused after resume")
	}
	// Exactly once: the next clear tick must not resume again.
	if d := c.Decide(clear, false, now.Add(6*time.Second)); d.Resume {
		t.Error("resume fired twice for one pause episode")
	}
}

func TestFlappingConditionRestartsWindow(t *testing.T) {
	c := New(4*time.Second, 150)
	now := time.Now().UTC()

	unsafe := model.SafetyContext{Level: model.Highway, ManeuverDistance: model.UnknownDistance}
	clear := model.SafetyContext{Level: model.Parked, ManeuverDistance: model.UnknownDistance}

	c.Decide(unsafe, true, now)
	c.Decide(clear, false, now.Add(1*time.Second))
	// Condition returns before the window completes: dwell clock resets.
	c.Decide(unsafe, false, now.Add(3*time.Second))
	if d := c.Decide(clear, false, now.Add(5*time.Second)); d.Resume {
		t.Error("resume fired without a full continuous clear window")
	}
	if d := c.Decide(clear, false, now.Add(10*time.Second)); !d.Resume {
		t.Errorf("expected resume once window held, got %+v", d)
	}
}

func TestResetClearsEpisode(t *testing.T) {
	c := New(4*time.Second, 150)
	now := time.Now().UTC()

	c.Decide(model.SafetyContext{Level: model.Highway, ManeuverDistance: model.UnknownDistance}, true, now)
	c.Reset()
	if c.Paused() {
		t.Error("Reset should clear paused state")
	}
	clear := model.SafetyContext{Level: model.Parked, ManeuverDistance: model.UnknownDistance}
	if d := c.Decide(clear, false, now.Add(10*time.Second)); d.Resume {
		t.Error("no resume after Reset, the episode is gone")
	}
}
