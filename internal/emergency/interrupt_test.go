package emergency

import (
	"testing"
	"time"
)

func TestTriggerDelivers(t *testing.T) {
	i := New()
	i.Trigger("hazard button")

	select {
	case ev := <-i.Events():
		if ev.Reason != "hazard button" {
			t.Errorf("reason: got %q", ev.Reason)
		}
		if ev.Timestamp.IsZero() {
			t.Error("timestamp not stamped")
		}
	default:
		t.Fatal("trigger not delivered")
	}
}

func TestTriggerNeverBlocks(t *testing.T) {
	i := New()
	done := make(chan struct{})
	go func() {
		// Far more triggers than the buffer holds; extras collapse into
		// the pending stop.
		for n := 0; n < 100; n++ {
			i.Trigger("repeat")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked with a full buffer")
	}

	_, count := i.LastTriggered()
	if count != 100 {
		t.Errorf("trigger count: got %d", count)
	}
}
