package machine

import (
	"sync"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// subscribers fans machine output out to listeners. Publishing never
// blocks the reducer: a subscriber that cannot keep up misses updates
// rather than stalling transitions.
type subscribers struct {
	mu       sync.Mutex
	states   []chan model.ConversationState
	events   []chan model.SafetyEvent
	outcomes []chan model.CommandOutcome
}

func (s *subscribers) publishState(st model.ConversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.states {
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *subscribers) publishEvent(ev model.SafetyEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.events {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *subscribers) publishOutcome(o model.CommandOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.outcomes {
		select {
		case ch <- o:
		default:
		}
	}
}

// SubscribeStates returns a channel of conversation state changes.
// Callers must UnsubscribeStates when done or the subscription leaks.
func (m *Machine) SubscribeStates(buf int) <-chan model.ConversationState {
	ch := make(chan model.ConversationState, max(buf, 1))
	m.subs.mu.Lock()
	m.subs.states = append(m.subs.states, ch)
	m.subs.mu.Unlock()
	return ch
}

// UnsubscribeStates removes a subscription and closes its channel.
// Calling it again for the same channel is a no-op.
func (m *Machine) UnsubscribeStates(ch <-chan model.ConversationState) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	for i, c := range m.subs.states {
		if c == ch {
			m.subs.states = append(m.subs.states[:i], m.subs.states[i+1:]...)
			close(c)
			return
		}
	}
}

// SubscribeEvents returns a channel of safety events as they are logged.
// Callers must UnsubscribeEvents when done or the subscription leaks.
func (m *Machine) SubscribeEvents(buf int) <-chan model.SafetyEvent {
	ch := make(chan model.SafetyEvent, max(buf, 1))
	m.subs.mu.Lock()
	m.subs.events = append(m.subs.events, ch)
	m.subs.mu.Unlock()
	return ch
}

// UnsubscribeEvents removes a subscription and closes its channel.
func (m *Machine) UnsubscribeEvents(ch <-chan model.SafetyEvent) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	for i, c := range m.subs.events {
		if c == ch {
			m.subs.events = append(m.subs.events[:i], m.subs.events[i+1:]...)
			close(c)
			return
		}
	}
}

// SubscribeOutcomes returns a channel of completed command outcomes.
// Callers must UnsubscribeOutcomes when done or the subscription leaks.
func (m *Machine) SubscribeOutcomes(buf int) <-chan model.CommandOutcome {
	ch := make(chan model.CommandOutcome, max(buf, 1))
	m.subs.mu.Lock()
	m.subs.outcomes = append(m.subs.outcomes, ch)
	m.subs.mu.Unlock()
	return ch
}

// UnsubscribeOutcomes removes a subscription and closes its channel.
func (m *Machine) UnsubscribeOutcomes(ch <-chan model.CommandOutcome) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	for i, c := range m.subs.outcomes {
		if c == ch {
			m.subs.outcomes = append(m.subs.outcomes[:i], m.subs.outcomes[i+1:]...)
			close(c)
			return
		}
	}
}
