package playback

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Controller is the imperative playback surface implemented by the host:
// audio player plus TTS. All calls take a context; an implementation must
// abandon work when the context is cancelled.
type Controller interface {
	Speak(ctx context.Context, text string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	Alert(ctx context.Context) error
}

// EffectKind names a side-effect command emitted by the state machine.
type EffectKind string

const (
	EffectSpeak  EffectKind = "speak"
	EffectPlay   EffectKind = "play"
	EffectPause  EffectKind = "pause"
	EffectResume EffectKind = "resume"
	EffectStop   EffectKind = "stop"
	EffectAlert  EffectKind = "alert"
)

// Effect is one side-effect command. Dispatched after a transition
// commits, never interleaved with the next event's evaluation.
type Effect struct {
	Kind EffectKind
	Text string // spoken text for EffectSpeak
}

// Dispatcher runs effects on goroutines bound to a cancellable context.
// CancelAll (the emergency path) invalidates every in-flight effect: a
// cancelled speak or play completes as a no-op instead of applying a
// stale result.
type Dispatcher struct {
	ctrl Controller

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over the given controller.
func NewDispatcher(ctrl Controller) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{ctrl: ctrl, ctx: ctx, cancel: cancel}
}

// Dispatch fires one effect asynchronously. Does not block the caller.
func (d *Dispatcher) Dispatch(e Effect) {
	d.DispatchFunc(e, nil)
}

// DispatchFunc fires one effect asynchronously and invokes done when the
// effect completes without being cancelled. A cancelled effect never
// calls done; its result is stale by definition.
func (d *Dispatcher) DispatchFunc(e Effect, done func()) {
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if ctx.Err() != nil {
			return
		}
		if err := d.run(ctx, e); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "playback: %s: %v\n", e.Kind, err)
		}
		if ctx.Err() == nil && done != nil {
			done()
		}
	}()
}

func (d *Dispatcher) run(ctx context.Context, e Effect) error {
	switch e.Kind {
	case EffectSpeak:
		return d.ctrl.Speak(ctx, e.Text)
	case EffectPlay:
		return d.ctrl.Play(ctx)
	case EffectPause:
		return d.ctrl.Pause(ctx)
	case EffectResume:
		return d.ctrl.Resume(ctx)
	case EffectStop:
		return d.ctrl.Stop(ctx)
	case EffectAlert:
		return d.ctrl.Alert(ctx)
	default:
		return fmt.Errorf("unknown effect %q", e.Kind)
	}
}

// CancelAll cancels every in-flight effect and re-arms the dispatcher
// for subsequent ones. The emergency interrupt calls this before any
// new effect is issued.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	d.cancel()
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.mu.Unlock()
}

// Close cancels all effects and waits for their goroutines to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

// Nop is a Controller that does nothing. Default when the host has not
// attached a playback surface, and the base for test doubles.
type Nop struct{}

func (Nop) Speak(context.Context, string) error { return nil }
func (Nop) Play(context.Context) error          { return nil }
func (Nop) Pause(context.Context) error         { return nil }
func (Nop) Resume(context.Context) error        { return nil }
func (Nop) Stop(context.Context) error          { return nil }
func (Nop) Alert(context.Context) error         { return nil }
