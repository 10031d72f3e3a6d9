package policy

import (
	"testing"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

func TestAlwaysAvailableBypassesEveryLevel(t *testing.T) {
	cfg := DefaultConfig()
	levels := []model.SafetyLevel{model.Parked, model.LowSpeed, model.Moderate, model.Highway, model.Critical}

	for _, action := range []string{"stop", "pause", "help", "cancel"} {
		for _, level := range levels {
			cmd := model.NewCommand(action, nil, 0.95)
			v := Evaluate(cmd, level, cfg)
			if v.Decision != model.Allowed {
				t.Errorf("%s at %s: expected Allowed, got %s", action, level, v.Decision)
			}
			if v.PolicyID != "bypass.always_available" {
				t.Errorf("%s at %s: expected bypass policy, got %s", action, level, v.PolicyID)
			}
		}
	}
}

func TestCriticalBlocksEverythingElse(t *testing.T) {
	cfg := DefaultConfig()

	for _, action := range []string{"play", "navigate", "book", "volume", "next"} {
		cmd := model.NewCommand(action, nil, 0.95)
		v := Evaluate(cmd, model.Critical, cfg)
		if v.Decision != model.Blocked {
			t.Errorf("%s at CRITICAL: expected Blocked, got %s", action, v.Decision)
		}
		if v.PolicyID != "level.critical.block" {
			t.Errorf("%s at CRITICAL: expected level.critical.block, got %s", action, v.PolicyID)
		}
	}
}

func TestNavigationNeedsConfirmationAtSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cmd := model.NewCommand("navigate", []string{"downtown"}, 0.9)

	for _, level := range []model.SafetyLevel{model.Moderate, model.Highway} {
		v := Evaluate(cmd, level, cfg)
		if v.Decision != model.RequiresConfirmation {
			t.Errorf("navigate at %s: expected RequiresConfirmation, got %s", level, v.Decision)
		}
		if v.PolicyID != "complex.navigation.confirm" {
			t.Errorf("navigate at %s: expected complex.navigation.confirm, got %s", level, v.PolicyID)
		}
	}

	// Parked and low speed need no confirmation.
	for _, level := range []model.SafetyLevel{model.Parked, model.LowSpeed} {
		v := Evaluate(cmd, level, cfg)
		if v.Decision != model.Allowed {
			t.Errorf("navigate at %s: expected Allowed, got %s", level, v.Decision)
		}
	}
}

func TestVisualCommandsBlockedAtSpeed(t *testing.T) {
	cfg := DefaultConfig()

	for _, action := range []string{"book", "browse", "search", "settings"} {
		cmd := model.NewCommand(action, nil, 0.9)

		for _, level := range []model.SafetyLevel{model.Moderate, model.Highway} {
			v := Evaluate(cmd, level, cfg)
			if v.Decision != model.Blocked {
				t.Errorf("%s at %s: expected Blocked, got %s", action, level, v.Decision)
			}
			if v.PolicyID != "complex.visual.block" {
				t.Errorf("%s at %s: expected complex.visual.block, got %s", action, level, v.PolicyID)
			}
		}

		v := Evaluate(cmd, model.Parked, cfg)
		if v.Decision != model.Allowed {
			t.Errorf("%s at PARKED: expected Allowed, got %s", action, v.Decision)
		}
	}
}

func TestLowConfidenceWarns(t *testing.T) {
	cfg := DefaultConfig()
	cmd := model.NewCommand("play", nil, 0.4)

	v := Evaluate(cmd, model.LowSpeed, cfg)
	if v.Decision != model.AllowedWithWarning {
		t.Errorf("expected AllowedWithWarning for confidence 0.4, got %s", v.Decision)
	}
	if v.PolicyID != "confidence.warn" {
		t.Errorf("expected confidence.warn, got %s", v.PolicyID)
	}

	// At or above the threshold: clean allow.
	cmd.Confidence = 0.6
	v = Evaluate(cmd, model.LowSpeed, cfg)
	if v.Decision != model.Allowed {
		t.Errorf("expected Allowed for confidence 0.6, got %s", v.Decision)
	}
}

func TestUnrecognizedActionBlockedAtEveryLevel(t *testing.T) {
	cfg := DefaultConfig()
	cmd := model.NewCommand("hyperdrive", nil, 0.95)

	for _, level := range []model.SafetyLevel{model.Parked, model.LowSpeed, model.Moderate, model.Highway} {
		v := Evaluate(cmd, level, cfg)
		if v.Decision != model.Blocked {
			t.Errorf("hyperdrive at %s: expected Blocked, got %s", level, v.Decision)
		}
		if v.PolicyID != "default.unrecognized" {
			t.Errorf("hyperdrive at %s: expected default.unrecognized, got %s", level, v.PolicyID)
		}
	}
}

func TestNilConfigUsesDefaults(t *testing.T) {
	cmd := model.NewCommand("play", nil, 0.95)
	v := Evaluate(cmd, model.Parked, nil)
	if v.Decision != model.Allowed {
		t.Errorf("expected Allowed with nil config, got %s", v.Decision)
	}
}

func TestVerdictTable(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name     string
		action   string
		conf     float64
		level    model.SafetyLevel
		decision model.Decision
	}{
		{"simple while parked", "play", 0.95, model.Parked, model.Allowed},
		{"simple on highway", "next", 0.95, model.Highway, model.Allowed},
		{"reroute at moderate", "reroute", 0.9, model.Moderate, model.RequiresConfirmation},
		{"add_stop on highway", "add_stop", 0.9, model.Highway, model.RequiresConfirmation},
		{"booking while parked", "book", 0.9, model.Parked, model.Allowed},
		{"booking at critical", "book", 0.9, model.Critical, model.Blocked},
		{"stop at critical", "stop", 0.95, model.Critical, model.Allowed},
		{"mumbled volume at low speed", "volume", 0.5, model.LowSpeed, model.AllowedWithWarning},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Evaluate(model.NewCommand(tc.action, nil, tc.conf), tc.level, cfg)
			if v.Decision != tc.decision {
				t.Errorf("expected %s, got %s (policy %s)", tc.decision, v.Decision, v.PolicyID)
			}
		})
	}
}
