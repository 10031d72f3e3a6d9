package model

import "time"

// Event is one item on the state machine's inbound queue. All producers
// push immutable Event values; the machine consumes them one at a time.
type Event interface {
	EventName() string
}

// ActivationEvent signals that listening should begin: a wake word match
// or a manual (button) activation.
type ActivationEvent struct {
	Source     string  // "wake_word" or "manual"
	Phrase     string  // matched phrase, empty for manual
	Confidence float64 // 1.0 for manual
}

func (ActivationEvent) EventName() string { return "activation" }

// TranscriptEvent carries a speech recognition result.
type TranscriptEvent struct {
	Text  string
	Final bool
}

func (TranscriptEvent) EventName() string { return "transcript" }

// RecognitionErrorEvent signals a failed transcription. Recovered locally
// by re-prompting; never fatal.
type RecognitionErrorEvent struct {
	Message string
}

func (RecognitionErrorEvent) EventName() string { return "recognition_error" }

// ContextEvent carries a fresh SafetyContext snapshot from the aggregator.
type ContextEvent struct {
	Context SafetyContext
}

func (ContextEvent) EventName() string { return "context" }

// PauseEvent is the auto-pause controller's request to suspend or resume
// output.
type PauseEvent struct {
	Pause  bool
	Reason string
}

func (PauseEvent) EventName() string { return "pause" }

// EmergencyEvent is the highest-priority signal in the system. It is
// drained ahead of every other event.
type EmergencyEvent struct {
	Reason    string
	Timestamp time.Time
}

func (EmergencyEvent) EventName() string { return "emergency" }

// TimerKind identifies which machine-owned timer fired.
type TimerKind string

const (
	TimerConfirmation TimerKind = "confirmation"
	TimerCooldown     TimerKind = "cooldown"
	TimerResume       TimerKind = "resume"
)

// TimerEvent signals that a machine-owned timer elapsed. Generation guards
// against a stale timer firing after its window was cancelled.
type TimerEvent struct {
	Kind       TimerKind
	Generation uint64
}

func (TimerEvent) EventName() string { return "timer" }

// LifecycleEvent carries an app foreground/background transition.
type LifecycleEvent struct {
	Foreground bool
}

func (LifecycleEvent) EventName() string { return "lifecycle" }

// GeofenceEvent is a proximity signal from the external POI trigger
// evaluator, merged into the safety context as contextual input.
type GeofenceEvent struct {
	Kind     string  // e.g. "approaching_maneuver"
	Maneuver string
	Distance float64 // meters
}

func (GeofenceEvent) EventName() string { return "geofence" }
