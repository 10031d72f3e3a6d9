package emergency

import (
	"sync"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// DefaultCooldown is how long the machine holds EmergencyStopped before
// returning to Idle.
const DefaultCooldown = 10 * time.Second

// Interrupt is the single highest-priority signal path in the system.
// Trigger is callable from any component at any time and never blocks;
// the state machine drains its channel ahead of all normal events.
type Interrupt struct {
	ch chan model.EmergencyEvent

	mu            sync.Mutex
	lastTriggered time.Time
	count         int
}

// New creates an Interrupt with a small buffer: concurrent triggers
// collapse into the pending stop rather than queue behind it.
func New() *Interrupt {
	return &Interrupt{ch: make(chan model.EmergencyEvent, 4)}
}

// Trigger fires the interrupt. Never blocks and can never be suppressed
// by a consumer; when the buffer already holds a pending stop, an extra
// trigger is redundant and is dropped.
func (i *Interrupt) Trigger(reason string) {
	ev := model.EmergencyEvent{
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}

	i.mu.Lock()
	i.lastTriggered = ev.Timestamp
	i.count++
	i.mu.Unlock()

	select {
	case i.ch <- ev:
	default:
	}
}

// Events returns the priority channel the state machine drains first.
func (i *Interrupt) Events() <-chan model.EmergencyEvent {
	return i.ch
}

// LastTriggered returns the time of the most recent trigger and how many
// triggers have fired. For diagnostics.
func (i *Interrupt) LastTriggered() (time.Time, int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastTriggered, i.count
}
