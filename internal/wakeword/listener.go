package wakeword

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

const (
	// windowSize is the trailing audio window scored against the
	// enabled template.
	windowSize = SampleRate * 2

	// scoreHop is how many new samples arrive between scorings.
	scoreHop = SampleRate / 4

	// energyGate skips scoring silent windows.
	energyGate = 0.01

	// refractory suppresses repeat activations from the same utterance.
	refractory = 2 * time.Second

	frameQueue = 64
)

// Listener continuously analyzes a PCM stream for the enabled wake word
// profile. Detection cost is constant: only one profile may be enabled,
// so each window is scored against exactly one template.
type Listener struct {
	store *Store
	emit  func(model.ActivationEvent)

	ring   *ringBuffer
	frames chan []int16

	mu        sync.Mutex
	profile   model.WakeWordProfile
	template  []float64
	active    bool
	lastMatch time.Time
}

// NewListener creates a Listener that calls emit on every activation.
func NewListener(store *Store, emit func(model.ActivationEvent)) *Listener {
	return &Listener{
		store:  store,
		emit:   emit,
		ring:   newRingBuffer(windowSize),
		frames: make(chan []int16, frameQueue),
	}
}

// Reload re-reads the enabled profile from the store. Called on startup
// and after any profile change.
func (l *Listener) Reload() error {
	p, template, ok, err := l.store.Enabled()
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.profile = p
	l.template = template
	l.active = ok && len(template) > 0
	l.mu.Unlock()
	return nil
}

// Feed pushes a PCM frame (int16 mono, 16kHz) into the listener.
// Never blocks; a full queue drops the frame.
func (l *Listener) Feed(samples []int16) {
	frame := make([]int16, len(samples))
	copy(frame, samples)
	select {
	case l.frames <- frame:
	default:
	}
}

// Run consumes frames until ctx is cancelled, scoring the trailing
// window every scoreHop samples.
func (l *Listener) Run(ctx context.Context) error {
	sinceScore := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-l.frames:
			l.ring.Add(frame)
			sinceScore += len(frame)
			if sinceScore >= scoreHop && l.ring.Full() {
				sinceScore = 0
				l.score()
			}
		}
	}
}

func (l *Listener) score() {
	l.mu.Lock()
	active := l.active
	template := l.template
	profile := l.profile
	last := l.lastMatch
	l.mu.Unlock()

	if !active {
		return
	}
	if time.Since(last) < refractory {
		return
	}

	window := l.ring.Read()
	if rms(window) < energyGate {
		return
	}

	score := Similarity(Fingerprint(window), template)
	if score < profile.Sensitivity {
		// Below the profile's sensitivity: the match is discarded.
		return
	}

	l.mu.Lock()
	l.lastMatch = time.Now()
	l.mu.Unlock()
	l.ring.Clear()

	fmt.Fprintf(os.Stderr, "wakeword: %q matched (%.2f)\n", profile.Phrase, score)
	l.emit(model.ActivationEvent{
		Source:     "wake_word",
		Phrase:     profile.Phrase,
		Confidence: score,
	})
}
