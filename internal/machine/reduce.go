package machine

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/audit"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/playback"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/recognizer"
)

const (
	promptConfirm   = "Say yes to confirm, or no to cancel."
	promptReprompt  = "Sorry, I didn't catch that."
	promptCancelled = "Okay, cancelled."
	promptTimedOut  = "No answer, cancelling that."
	helpText        = "You can say things like play, pause, navigate to a place, or stop at any time."
)

// Step evaluates exactly one event against the current state. Run calls
// it from the single reducer goroutine; tests may call it directly on a
// machine that is not running.
func (m *Machine) Step(ev model.Event) {
	switch e := ev.(type) {
	case model.EmergencyEvent:
		m.onEmergency(e)
	case model.ActivationEvent:
		m.onActivation(e)
	case model.TranscriptEvent:
		m.onTranscript(e)
	case model.RecognitionErrorEvent:
		m.onRecognitionError(e)
	case model.ContextEvent:
		m.onContext(e.Context)
	case model.GeofenceEvent:
		m.onGeofence(e)
	case model.PauseEvent:
		m.onPauseSignal(e)
	case model.LifecycleEvent:
		m.onLifecycle(e)
	case model.TimerEvent:
		m.onTimer(e)
	case effectDone:
		m.onEffectDone(e)
	default:
		fmt.Fprintf(os.Stderr, "machine: unhandled event %s\n", ev.EventName())
	}
}

// onEmergency is the unconditional stop path. Effects are cancelled
// before anything else so no in-flight speak or play can apply a stale
// result after the transition.
func (m *Machine) onEmergency(e model.EmergencyEvent) {
	m.dispatcher.CancelAll()
	m.effectGen++

	m.cancelTimer(model.TimerConfirmation)
	m.cancelTimer(model.TimerResume)
	m.pending = nil
	m.mediaPlaying = false
	m.auto.Reset()

	m.setState(model.StateEmergencyStopped)

	m.dispatcher.Dispatch(playback.Effect{Kind: playback.EffectStop})
	m.dispatcher.Dispatch(playback.Effect{Kind: playback.EffectAlert})

	m.record(model.SafetyEvent{
		Kind:   model.EventEmergencyStop,
		Reason: e.Reason,
		Level:  m.level(),
	})

	m.armTimer(model.TimerCooldown, m.cfg.Cooldown)
}

func (m *Machine) onActivation(e model.ActivationEvent) {
	if m.State() != model.StateIdle {
		return
	}
	m.setState(model.StateListening)
	_ = e
}

func (m *Machine) onTranscript(e model.TranscriptEvent) {
	if !e.Final {
		// Partial results only confirm the user is still speaking.
		return
	}

	switch m.State() {
	case model.StateListening:
		m.setState(model.StateProcessing)
		m.processCommand(e.Text)
	case model.StateAwaitingConfirmation:
		m.resolveConfirmation(e.Text)
	default:
		// Transcript arriving in any other state is stale input.
	}
}

// processCommand runs recognition and policy for one final transcript.
func (m *Machine) processCommand(text string) {
	cmd, ok := recognizer.Match(text)
	if !ok {
		// Recognition miss: re-prompt and keep listening. Never fatal.
		m.speak(promptReprompt)
		m.setState(model.StateListening)
		return
	}

	pol, _ := m.policyConfig()
	verdict := policy.Evaluate(cmd, m.level(), pol)

	switch verdict.Decision {
	case model.Allowed:
		m.execute(cmd, verdict)

	case model.AllowedWithWarning:
		if m.shouldWarn(cmd.Action) {
			m.speak("Heads up, I may have misheard that.")
		}
		m.execute(cmd, verdict)

	case model.RequiresConfirmation:
		m.pending = &pendingCommand{cmd: cmd, verdict: verdict}
		m.setState(model.StateAwaitingConfirmation)
		m.armTimer(model.TimerConfirmation, m.cfg.ConfirmTimeout)
		m.speak(confirmPrompt(cmd) + " " + promptConfirm)
		m.record(model.SafetyEvent{
			Kind:    model.EventConfirmationRequired,
			Command: cmd.Action,
			Reason:  verdict.Reason,
			Level:   m.level(),
		})
		m.publishOutcome(cmd, verdict)

	case model.Blocked:
		m.speak("I can't do that right now.")
		m.setState(model.StateIdle)
		m.record(model.SafetyEvent{
			Kind:    model.EventCommandBlocked,
			Command: cmd.Action,
			Reason:  verdict.Reason,
			Level:   m.level(),
		})
		m.publishOutcome(cmd, verdict)
	}
}

// resolveConfirmation handles the yes/no answer for a pending command.
func (m *Machine) resolveConfirmation(text string) {
	if m.pending == nil {
		m.setState(model.StateIdle)
		return
	}

	switch {
	case recognizer.IsAffirmative(text):
		pending := *m.pending
		m.pending = nil
		m.cancelTimer(model.TimerConfirmation)
		m.execute(pending.cmd, pending.verdict)

	case recognizer.IsNegative(text):
		m.pending = nil
		m.cancelTimer(model.TimerConfirmation)
		m.speak(promptCancelled)
		m.setState(model.StateIdle)

	default:
		// Neither yes nor no: keep waiting, the timeout stays armed.
		m.speak(promptConfirm)
	}
}

// execute commits an allowed command: dispatch its effect and enter the
// matching active state. The effect-done completion returns the machine
// to Idle.
func (m *Machine) execute(cmd model.CommandPattern, verdict model.Verdict) {
	switch cmd.Action {
	case "stop", "cancel":
		m.mediaPlaying = false
		m.pending = nil
		m.dispatchTracked(playback.Effect{Kind: playback.EffectStop})
		m.setState(model.StateIdle)

	case "pause":
		m.mediaPlaying = false
		m.dispatchTracked(playback.Effect{Kind: playback.EffectPause})
		m.setState(model.StateIdle)

	case "help":
		m.setState(model.StateSpeaking)
		m.dispatchTracked(playback.Effect{Kind: playback.EffectSpeak, Text: helpText})

	case "play":
		m.mediaPlaying = true
		m.setState(model.StateExecuting)
		m.dispatchTracked(playback.Effect{Kind: playback.EffectPlay})

	case "resume":
		m.mediaPlaying = true
		m.setState(model.StateExecuting)
		m.dispatchTracked(playback.Effect{Kind: playback.EffectResume})

	default:
		// Everything else is acknowledged by voice; the actual work is
		// the host's (navigation, booking, browsing).
		m.setState(model.StateExecuting)
		m.dispatchTracked(playback.Effect{Kind: playback.EffectSpeak, Text: executionAck(cmd)})
	}

	m.publishOutcome(cmd, verdict)
}

func (m *Machine) onRecognitionError(e model.RecognitionErrorEvent) {
	switch m.State() {
	case model.StateListening, model.StateProcessing:
		m.speak(promptReprompt)
		m.setState(model.StateListening)
	case model.StateAwaitingConfirmation:
		m.speak(promptConfirm)
	}
	_ = e
}

// onContext consumes a fresh aggregator snapshot and lets the auto-pause
// controller evaluate it.
func (m *Machine) onContext(ctx model.SafetyContext) {
	m.mu.Lock()
	m.latest = ctx
	m.mu.Unlock()

	if ctx.Stale {
		fmt.Fprintf(os.Stderr, "machine: telemetry stale, holding level %s\n", ctx.Level)
	}

	m.evaluateAutoPause()
}

// onGeofence merges a proximity signal into the latest context and
// re-evaluates auto-pause with it.
func (m *Machine) onGeofence(e model.GeofenceEvent) {
	m.mu.Lock()
	ctx := m.latest
	ctx.UpcomingManeuver = e.Maneuver
	ctx.ManeuverDistance = e.Distance
	m.latest = ctx
	m.mu.Unlock()

	m.evaluateAutoPause()
}

func (m *Machine) evaluateAutoPause() {
	m.mu.Lock()
	ctx := m.latest
	m.mu.Unlock()

	d := m.auto.Decide(ctx, m.outputActive(), m.clock())
	switch {
	case d.Pause:
		m.enterAutoPause(d.Reason)
	case d.Resume:
		m.leaveAutoPause()
	default:
		if m.auto.Paused() {
			// Re-check at the hysteresis boundary even if no further
			// telemetry tick arrives.
			m.armTimer(model.TimerResume, m.cfg.Hysteresis)
		}
	}
}

func (m *Machine) enterAutoPause(reason string) {
	if m.State() == model.StateAutoPaused || m.State() == model.StateEmergencyStopped {
		return
	}
	m.mu.Lock()
	m.prevState = m.state
	m.mu.Unlock()

	m.setState(model.StateAutoPaused)
	m.dispatcher.Dispatch(playback.Effect{Kind: playback.EffectPause})
	m.record(model.SafetyEvent{
		Kind:   model.EventAutoPause,
		Reason: reason,
		Level:  m.level(),
	})
	m.armTimer(model.TimerResume, m.cfg.Hysteresis)
}

func (m *Machine) leaveAutoPause() {
	if m.State() != model.StateAutoPaused {
		return
	}
	m.mu.Lock()
	prev := m.prevState
	m.mu.Unlock()

	m.setState(prev)
	m.dispatcher.Dispatch(playback.Effect{Kind: playback.EffectResume})
	m.record(model.SafetyEvent{
		Kind:   model.EventAutoResume,
		Level:  m.level(),
	})
}

// onPauseSignal handles an explicit pause/resume request from outside
// the auto-pause controller (e.g. a transient anomaly signal).
func (m *Machine) onPauseSignal(e model.PauseEvent) {
	if e.Pause {
		m.enterAutoPause(e.Reason)
		return
	}
	m.leaveAutoPause()
}

func (m *Machine) onLifecycle(e model.LifecycleEvent) {
	m.mu.Lock()
	m.foreground = e.Foreground
	m.mu.Unlock()

	if !e.Foreground {
		if m.State() == model.StateSpeaking || m.State() == model.StateExecuting || m.mediaPlaying {
			m.lifecyclePaused = true
			m.enterAutoPause("app backgrounded")
		}
		return
	}
	if m.lifecyclePaused {
		m.lifecyclePaused = false
		m.leaveAutoPause()
	}
}

func (m *Machine) onTimer(e model.TimerEvent) {
	if !m.timerCurrent(e) {
		return
	}

	switch e.Kind {
	case model.TimerConfirmation:
		if m.pending == nil {
			return
		}
		// Expiry discards the pending action; it is never silently
		// executed. The window can lapse while auto-paused, so the
		// discard cannot depend on still being in the confirmation
		// state.
		cmd := m.pending.cmd.Action
		m.pending = nil
		m.record(model.SafetyEvent{
			Kind:    model.EventConfirmationTimeout,
			Command: cmd,
			Level:   m.level(),
		})

		switch m.State() {
		case model.StateAwaitingConfirmation:
			m.speak(promptTimedOut)
			m.setState(model.StateIdle)
		case model.StateAutoPaused:
			// Auto-resume must not return to a confirmation that no
			// longer exists.
			m.mu.Lock()
			if m.prevState == model.StateAwaitingConfirmation {
				m.prevState = model.StateIdle
			}
			m.mu.Unlock()
		}

	case model.TimerCooldown:
		if m.State() == model.StateEmergencyStopped {
			m.setState(model.StateIdle)
		}

	case model.TimerResume:
		m.evaluateAutoPause()
	}
}

func (m *Machine) onEffectDone(e effectDone) {
	if e.Generation != m.effectGen {
		return
	}
	switch m.State() {
	case model.StateSpeaking, model.StateExecuting:
		m.setState(model.StateIdle)
	}
}

// dispatchTracked dispatches an effect whose completion should return
// the machine to Idle. The generation guards against a completion that
// raced an emergency cancel.
func (m *Machine) dispatchTracked(e playback.Effect) {
	gen := m.effectGen
	m.dispatcher.DispatchFunc(e, func() {
		m.Push(effectDone{Generation: gen, Kind: e.Kind})
	})
}

// speak dispatches untracked voice feedback.
func (m *Machine) speak(text string) {
	m.dispatcher.Dispatch(playback.Effect{Kind: playback.EffectSpeak, Text: text})
}

func (m *Machine) setState(next model.ConversationState) {
	m.mu.Lock()
	if m.state == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.mu.Unlock()
	m.subs.publishState(next)
}

func (m *Machine) level() model.SafetyLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest.Level
}

// outputActive reports whether there is anything the auto-pause
// controller could pause.
func (m *Machine) outputActive() bool {
	if m.mediaPlaying {
		return true
	}
	s := m.State()
	return s == model.StateSpeaking || s == model.StateExecuting
}

// record stamps, logs, and publishes one safety event.
func (m *Machine) record(ev model.SafetyEvent) {
	ev.ID = uuid.NewString()
	ev.Timestamp = m.clock()
	if m.log != nil {
		_, hash := m.policyConfig()
		m.log.Append(audit.FromEvent(ev, hash))
	}
	m.subs.publishEvent(ev)
}

func (m *Machine) publishOutcome(cmd model.CommandPattern, verdict model.Verdict) {
	m.subs.publishOutcome(model.CommandOutcome{
		Command:   cmd,
		Verdict:   verdict,
		State:     m.State(),
		Timestamp: m.clock(),
	})
}

// shouldWarn rate-limits repeated spoken warnings for the same action.
func (m *Machine) shouldWarn(action string) bool {
	return m.warnLimit.Allow(action, m.clock())
}

func confirmPrompt(cmd model.CommandPattern) string {
	if len(cmd.Params) > 0 {
		return fmt.Sprintf("You asked to %s %s.", cmd.Action, cmd.Params[0])
	}
	return fmt.Sprintf("You asked to %s.", cmd.Action)
}

func executionAck(cmd model.CommandPattern) string {
	if len(cmd.Params) > 0 {
		return fmt.Sprintf("Okay, %s %s.", cmd.Action, cmd.Params[0])
	}
	return fmt.Sprintf("Okay, %s.", cmd.Action)
}
