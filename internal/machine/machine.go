package machine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/audit"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/autopause"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/emergency"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/playback"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/policy"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/ratelimit"
)

// inboxSize bounds the inbound event queue. Producers never block on a
// full queue; excess events are dropped with a log line. The emergency
// channel is separate and is drained first.
const inboxSize = 256

// DefaultConfirmTimeout is the window for answering a confirmation
// prompt. On expiry the pending action is discarded, never executed.
const DefaultConfirmTimeout = 5 * time.Second

// warnSuppressWindow rate-limits repeated spoken warnings for the same
// action. The verdict itself is never rate-limited.
const warnSuppressWindow = 30 * time.Second

// Config holds state machine configuration.
type Config struct {
	ConfirmTimeout   time.Duration
	Cooldown         time.Duration
	Hysteresis       time.Duration
	ImminentManeuver float64

	Policy     *policy.Config
	PolicyHash string

	Controller playback.Controller
	Log        *audit.Log
	Interrupt  *emergency.Interrupt

	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// pendingCommand is a command parked in AwaitingConfirmation.
type pendingCommand struct {
	cmd     model.CommandPattern
	verdict model.Verdict
}

// Machine is the central reducer. It owns the single ConversationState
// instance; all events (telemetry-derived, recognition-derived,
// timer-derived, lifecycle-derived) are serialized into one inbound
// queue and evaluated strictly one at a time.
type Machine struct {
	cfg        Config
	clock      func() time.Time
	interrupt  *emergency.Interrupt
	dispatcher *playback.Dispatcher
	auto       *autopause.Controller
	log        *audit.Log

	events chan model.Event

	polMu      sync.RWMutex
	pol        *policy.Config
	policyHash string

	mu              sync.Mutex
	state           model.ConversationState
	prevState       model.ConversationState
	latest          model.SafetyContext
	pending         *pendingCommand
	mediaPlaying    bool
	foreground      bool
	lifecyclePaused bool

	timerGen  map[model.TimerKind]uint64
	warnLimit *ratelimit.Limiter
	effectGen uint64

	subs subscribers
}

// effectDone is the internal completion signal for a tracked effect.
type effectDone struct {
	Generation uint64
	Kind       playback.EffectKind
}

func (effectDone) EventName() string { return "effect_done" }

// effectGen invalidates stale completions after an emergency cancel.
var _ model.Event = effectDone{}

// New creates a Machine. Missing config fields take defaults.
func New(cfg Config) *Machine {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = emergency.DefaultCooldown
	}
	if cfg.Policy == nil {
		cfg.Policy = policy.DefaultConfig()
	}
	if cfg.Controller == nil {
		cfg.Controller = playback.Nop{}
	}
	if cfg.Interrupt == nil {
		cfg.Interrupt = emergency.New()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	m := &Machine{
		cfg:        cfg,
		clock:      clock,
		interrupt:  cfg.Interrupt,
		dispatcher: playback.NewDispatcher(cfg.Controller),
		auto:       autopause.New(cfg.Hysteresis, cfg.ImminentManeuver),
		log:        cfg.Log,
		events:     make(chan model.Event, inboxSize),
		pol:        cfg.Policy,
		policyHash: cfg.PolicyHash,
		state:      model.StateIdle,
		prevState:  model.StateIdle,
		foreground: true,
		timerGen:   make(map[model.TimerKind]uint64),
		warnLimit:  ratelimit.New(warnSuppressWindow),
	}
	m.latest = model.SafetyContext{Level: model.Critical, Stale: true, Timestamp: clock()}
	return m
}

// Run drains events until ctx is cancelled. The emergency channel is
// checked before the normal queue on every iteration, so an interrupt
// preempts any backlog.
func (m *Machine) Run(ctx context.Context) error {
	defer m.dispatcher.Close()
	for {
		select {
		case ev := <-m.interrupt.Events():
			m.Step(ev)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return nil
		case ev := <-m.interrupt.Events():
			m.Step(ev)
		case ev := <-m.events:
			m.Step(ev)
		}
	}
}

// Push enqueues an event without blocking. A full queue drops the event;
// losing a telemetry tick or partial transcript under overload is
// preferable to stalling a producer.
func (m *Machine) Push(ev model.Event) {
	select {
	case m.events <- ev:
	default:
		fmt.Fprintf(os.Stderr, "machine: inbox full, dropped %s\n", ev.EventName())
	}
}

// Interrupt returns the machine's emergency interrupt.
func (m *Machine) Interrupt() *emergency.Interrupt { return m.interrupt }

// State returns the current conversation state.
func (m *Machine) State() model.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Context returns the latest safety context snapshot.
func (m *Machine) Context() model.SafetyContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// SetPolicy swaps the policy config. Called by the hot-reload watcher.
func (m *Machine) SetPolicy(cfg *policy.Config, hash string) {
	if cfg == nil {
		return
	}
	m.polMu.Lock()
	m.pol = cfg
	m.policyHash = hash
	m.polMu.Unlock()
}

func (m *Machine) policyConfig() (*policy.Config, string) {
	m.polMu.RLock()
	defer m.polMu.RUnlock()
	return m.pol, m.policyHash
}

// armTimer schedules a TimerEvent after d. Each arm bumps the kind's
// generation; a fired timer whose generation no longer matches is stale
// and ignored by the reducer.
func (m *Machine) armTimer(kind model.TimerKind, d time.Duration) {
	m.timerGen[kind]++
	gen := m.timerGen[kind]
	time.AfterFunc(d, func() {
		m.Push(model.TimerEvent{Kind: kind, Generation: gen})
	})
}

// cancelTimer invalidates any outstanding timer of the given kind.
func (m *Machine) cancelTimer(kind model.TimerKind) {
	m.timerGen[kind]++
}

func (m *Machine) timerCurrent(ev model.TimerEvent) bool {
	return m.timerGen[ev.Kind] == ev.Generation
}
