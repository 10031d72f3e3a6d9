package policy

import (
	"fmt"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// Evaluate maps a (command, level) pair to a Verdict.
//
// Rule order (must not be changed):
//  1. Always-available bypass: stop/pause/help/cancel, unconditional
//  2. Critical level: every other command is blocked
//  3. Highway/Moderate: complex commands restricted by class
//  4. LowSpeed/Parked: allowed, with a warning on low confidence
//  5. Default: unrecognized actions are blocked
//
// The verdict is computed fresh on every call; it depends on the latest
// SafetyLevel and is never cached.
func Evaluate(cmd model.CommandPattern, level model.SafetyLevel, cfg *Config) model.Verdict {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Step 1: the only policy bypass. A driver can always stop, pause,
	// cancel, or ask for help.
	if cmd.AlwaysAvailable || model.IsAlwaysAvailable(cmd.Action) {
		return model.Verdict{
			Decision: model.Allowed,
			PolicyID: "bypass.always_available",
		}
	}

	// Step 2: critical context blocks all non-emergency interaction.
	if level == model.Critical {
		return model.Verdict{
			Decision: model.Blocked,
			Reason:   "unsafe to interact",
			PolicyID: "level.critical.block",
		}
	}

	class := cfg.Classify(cmd.Action)
	if class == ClassUnknown {
		// Step 5 applies at every level: an action outside the vocabulary
		// never executes.
		return model.Verdict{
			Decision: model.Blocked,
			Reason:   "unrecognized in current context",
			PolicyID: "default.unrecognized",
		}
	}

	// Step 3: at speed, commands needing attention are restricted.
	if level == model.Highway || level == model.Moderate {
		switch class {
		case ClassConfirm:
			return model.Verdict{
				Decision: model.RequiresConfirmation,
				Reason:   fmt.Sprintf("%s changes the route while driving", cmd.Action),
				PolicyID: "complex.navigation.confirm",
			}
		case ClassVisual:
			return model.Verdict{
				Decision: model.Blocked,
				Reason:   fmt.Sprintf("%s requires visual interaction", cmd.Action),
				PolicyID: "complex.visual.block",
			}
		}
	}

	// Step 4: known command in a safe-enough context.
	if cmd.Confidence > 0 && cmd.Confidence < cfg.LowConfidence {
		return model.Verdict{
			Decision: model.AllowedWithWarning,
			Reason:   fmt.Sprintf("low confidence (%.2f)", cmd.Confidence),
			PolicyID: "confidence.warn",
		}
	}

	return model.Verdict{
		Decision: model.Allowed,
		PolicyID: "level." + levelTag(level) + ".allow",
	}
}

func levelTag(level model.SafetyLevel) string {
	switch level {
	case model.Parked:
		return "parked"
	case model.LowSpeed:
		return "low_speed"
	case model.Moderate:
		return "moderate"
	case model.Highway:
		return "highway"
	default:
		return "critical"
	}
}
