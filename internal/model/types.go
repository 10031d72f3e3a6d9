package model

import (
	"time"
)

// UnknownSpeed marks a telemetry sample with no usable speed reading.
const UnknownSpeed = -1.0

// UnknownDistance marks a telemetry sample with no usable maneuver distance.
const UnknownDistance = -1.0

// Telemetry is one raw sample from the vehicle telemetry feed.
// Speed is mph; ManeuverDistance is meters. Negative values mean unknown.
type Telemetry struct {
	Speed            float64          `json:"speed"`
	IsNavigating     bool             `json:"is_navigating"`
	Traffic          TrafficCondition `json:"traffic_condition"`
	Weather          WeatherCondition `json:"weather_condition"`
	UpcomingManeuver string           `json:"upcoming_maneuver"`
	ManeuverDistance float64          `json:"maneuver_distance"`
	Timestamp        time.Time        `json:"timestamp"`
}

// TelemetryFromMap creates a Telemetry from a raw map with defensive coercion.
// Missing fields take the conservative reading: unknown speed, unknown distance.
func TelemetryFromMap(m map[string]any) Telemetry {
	t := Telemetry{
		Speed:            UnknownSpeed,
		ManeuverDistance: UnknownDistance,
	}
	if m == nil {
		return t
	}

	if v, ok := toFloat(m["speed"]); ok {
		t.Speed = v
	}
	if b, ok := m["is_navigating"].(bool); ok {
		t.IsNavigating = b
	}
	if s, ok := m["traffic_condition"].(string); ok {
		t.Traffic = TrafficCondition(s)
	}
	if s, ok := m["weather_condition"].(string); ok {
		t.Weather = WeatherCondition(s)
	}
	if s, ok := m["upcoming_maneuver"].(string); ok {
		t.UpcomingManeuver = s
	}
	if v, ok := toFloat(m["maneuver_distance"]); ok {
		t.ManeuverDistance = v
	}
	if s, ok := m["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			t.Timestamp = ts
		}
	}
	return t
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// SafetyContext is an immutable snapshot of the driving context.
// Produced by the aggregator on every telemetry tick; superseded by the
// next snapshot, never mutated in place.
type SafetyContext struct {
	Speed            float64          `json:"speed"`
	IsNavigating     bool             `json:"is_navigating"`
	Traffic          TrafficCondition `json:"traffic_condition"`
	Weather          WeatherCondition `json:"weather_condition"`
	UpcomingManeuver string           `json:"upcoming_maneuver"`
	ManeuverDistance float64          `json:"maneuver_distance"`
	Timestamp        time.Time        `json:"timestamp"`
	Level            SafetyLevel      `json:"level"`
	Stale            bool             `json:"stale"`
}

// alwaysAvailable is the fixed emergency command set. A user must be able
// to stop, pause, or ask for help regardless of driving context.
var alwaysAvailable = map[string]bool{
	"stop":   true,
	"pause":  true,
	"help":   true,
	"cancel": true,
}

// IsAlwaysAvailable reports whether the action belongs to the fixed
// emergency set that bypasses all policy.
func IsAlwaysAvailable(action string) bool {
	return alwaysAvailable[action]
}

// CommandPattern is a recognized voice intent.
type CommandPattern struct {
	Action          string   `json:"action"`
	Params          []string `json:"params,omitempty"`
	Confidence      float64  `json:"confidence"`
	AlwaysAvailable bool     `json:"always_available"`
}

// NewCommand creates a CommandPattern, setting AlwaysAvailable from the
// fixed emergency set.
func NewCommand(action string, params []string, confidence float64) CommandPattern {
	return CommandPattern{
		Action:          action,
		Params:          params,
		Confidence:      confidence,
		AlwaysAvailable: IsAlwaysAvailable(action),
	}
}

// Decision is the policy engine's decision class for a command.
type Decision string

const (
	Allowed              Decision = "allowed"
	AllowedWithWarning   Decision = "allowed_with_warning"
	RequiresConfirmation Decision = "requires_confirmation"
	Blocked              Decision = "blocked"
)

// Verdict is the output of policy evaluation. Computed fresh per command;
// never cached, since it depends on the latest SafetyLevel.
type Verdict struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
	PolicyID string   `json:"policy_id,omitempty"`
}

// ConversationState is the single interaction state owned by the state
// machine. All other components only read it or request transitions.
type ConversationState string

const (
	StateIdle                 ConversationState = "idle"
	StateListening            ConversationState = "listening"
	StateProcessing           ConversationState = "processing"
	StateAwaitingConfirmation ConversationState = "awaiting_confirmation"
	StateSpeaking             ConversationState = "speaking"
	StateExecuting            ConversationState = "executing"
	StateAutoPaused           ConversationState = "auto_paused"
	StateEmergencyStopped     ConversationState = "emergency_stopped"
)

// EventKind classifies a safety audit record.
type EventKind string

const (
	EventCommandBlocked       EventKind = "command_blocked"
	EventConfirmationRequired EventKind = "confirmation_required"
	EventAutoPause            EventKind = "auto_pause"
	EventAutoResume           EventKind = "auto_resume"
	EventEmergencyStop        EventKind = "emergency_stop"
	EventConfirmationTimeout  EventKind = "confirmation_timeout"
)

// SafetyEvent is one immutable audit record. Created on every policy or
// interrupt decision, appended to the event log, never mutated.
type SafetyEvent struct {
	ID        string      `json:"id"`
	Kind      EventKind   `json:"kind"`
	Command   string      `json:"command,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Level     SafetyLevel `json:"level"`
	Timestamp time.Time   `json:"timestamp"`
}

// CommandOutcome is the completed-command record pushed to subscribers
// that need to react to a finished action.
type CommandOutcome struct {
	Command   CommandPattern    `json:"command"`
	Verdict   Verdict           `json:"verdict"`
	State     ConversationState `json:"state"`
	Timestamp time.Time         `json:"timestamp"`
}

// WakeWordProfile is the only durable record the gateway owns.
// Invariant: at most one profile has Enabled == true at any time.
type WakeWordProfile struct {
	ID            string    `json:"id"`
	Phrase        string    `json:"phrase"`
	Enabled       bool      `json:"enabled"`
	Sensitivity   float64   `json:"sensitivity"`
	CustomTrained bool      `json:"custom_trained"`
	CreatedAt     time.Time `json:"created_at"`
}
