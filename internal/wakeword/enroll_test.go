package wakeword

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

// feedSamples streams enough PCM for n complete captures, then closes.
func feedSamples(n int) <-chan []int16 {
	frames := make(chan []int16)
	go func() {
		defer close(frames)
		total := n * int(CaptureDuration.Seconds()) * SampleRate
		chunk := tone(440, 4000)
		for sent := 0; sent < total; sent += len(chunk) {
			frames <- chunk
		}
	}()
	return frames
}

func TestTrainCommitsOneDisabledProfile(t *testing.T) {
	store := openTestStore(t)
	fs := afero.NewMemMapFs()
	e := NewEnroller(fs, store)

	p, err := e.Train(context.Background(), "hey roadtrip", feedSamples(EnrollSamples))
	if err != nil {
		t.Fatal(err)
	}
	if p.Enabled {
		t.Error("trained profile must start disabled")
	}
	if !p.CustomTrained {
		t.Error("trained profile not marked custom")
	}

	profiles, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected exactly one profile, got %d", len(profiles))
	}

	// Staging samples are removed after commit.
	entries, err := afero.ReadDir(fs, "/")
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				files, _ := afero.ReadDir(fs, "/"+entry.Name())
				if len(files) > 0 {
					t.Errorf("staging dir %s not cleaned up", entry.Name())
				}
			}
		}
	}
}

func TestTrainCancellationLeavesNothing(t *testing.T) {
	store := openTestStore(t)
	fs := afero.NewMemMapFs()
	e := NewEnroller(fs, store)

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan []int16)
	go func() {
		// One partial capture, then the user aborts.
		frames <- tone(440, 4000)
		cancel()
	}()

	_, err := e.Train(ctx, "hey roadtrip", frames)
	if !errors.Is(err, ErrEnrollmentCancelled) {
		t.Fatalf("expected ErrEnrollmentCancelled, got %v", err)
	}

	profiles, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 0 {
		t.Errorf("cancelled enrollment left %d profiles behind", len(profiles))
	}
}

func TestTrainClosedStreamAborts(t *testing.T) {
	store := openTestStore(t)
	e := NewEnroller(afero.NewMemMapFs(), store)

	frames := make(chan []int16)
	close(frames)

	if _, err := e.Train(context.Background(), "hey roadtrip", frames); !errors.Is(err, ErrEnrollmentCancelled) {
		t.Fatalf("expected ErrEnrollmentCancelled on closed stream, got %v", err)
	}
}

func TestTrainFromFilesRequiresExactSampleCount(t *testing.T) {
	store := openTestStore(t)
	e := NewEnroller(afero.NewMemMapFs(), store)

	if _, err := e.TrainFromFiles("hey roadtrip", []string{"one.wav"}); err == nil {
		t.Error("expected error for wrong sample count")
	}
}

func TestTrainedProfileMatchesItsPhrase(t *testing.T) {
	store := openTestStore(t)
	e := NewEnroller(afero.NewMemMapFs(), store)

	p, err := e.Train(context.Background(), "hey roadtrip", feedSamples(EnrollSamples))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Enable(p.ID); err != nil {
		t.Fatal(err)
	}

	_, template, ok, err := store.Enabled()
	if err != nil || !ok {
		t.Fatalf("enabled profile missing: %v", err)
	}

	// Audio like the enrollment scores high; unrelated audio scores lower.
	same := Similarity(template, Fingerprint(tone(440, 2*SampleRate)))
	other := Similarity(template, Fingerprint(tone(3000, 2*SampleRate)))
	if same <= other {
		t.Errorf("template does not discriminate: same=%v other=%v", same, other)
	}
}
