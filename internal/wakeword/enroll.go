package wakeword

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

const (
	// EnrollSamples is the exact number of recordings a custom phrase
	// needs.
	EnrollSamples = 3

	// CaptureDuration is the fixed length of each enrollment recording.
	CaptureDuration = 2 * time.Second
)

// ErrEnrollmentCancelled is returned when enrollment stops before all
// samples are captured. No profile and no samples remain.
var ErrEnrollmentCancelled = fmt.Errorf("wakeword: enrollment cancelled")

// Enroller records wake word training samples and commits new profiles.
// Samples are staged on an afero filesystem (an OS temp dir in
// production, memory in tests) and removed whether enrollment commits
// or aborts; the commit itself is the single profile INSERT.
type Enroller struct {
	fs    afero.Fs
	store *Store
}

// NewEnroller creates an Enroller over the given filesystem and store.
func NewEnroller(fs afero.Fs, store *Store) *Enroller {
	return &Enroller{fs: fs, store: store}
}

// Train captures exactly EnrollSamples recordings from the frame stream,
// builds the averaged template, and persists one new disabled profile.
// Cancellation at any point leaves no profile behind.
func (e *Enroller) Train(ctx context.Context, phrase string, frames <-chan []int16) (model.WakeWordProfile, error) {
	staging, err := afero.TempDir(e.fs, "", "wakeword-enroll")
	if err != nil {
		return model.WakeWordProfile{}, fmt.Errorf("wakeword: create staging dir: %w", err)
	}
	defer e.fs.RemoveAll(staging)

	paths := make([]string, 0, EnrollSamples)
	for i := 0; i < EnrollSamples; i++ {
		samples, err := capture(ctx, frames)
		if err != nil {
			return model.WakeWordProfile{}, err
		}
		path := filepath.Join(staging, fmt.Sprintf("sample_%d.wav", i+1))
		if err := e.writeWAV(path, samples); err != nil {
			return model.WakeWordProfile{}, err
		}
		paths = append(paths, path)
	}

	fps := make([][]float64, 0, EnrollSamples)
	for _, path := range paths {
		samples, err := e.readWAV(path)
		if err != nil {
			return model.WakeWordProfile{}, err
		}
		fps = append(fps, Fingerprint(samples))
	}

	template := AverageTemplate(fps)
	return e.store.Create(phrase, DefaultSensitivity, true, template)
}

// TrainFromFiles builds a profile from pre-recorded WAV samples instead
// of a live stream. Exactly EnrollSamples files are required.
func (e *Enroller) TrainFromFiles(phrase string, paths []string) (model.WakeWordProfile, error) {
	if len(paths) != EnrollSamples {
		return model.WakeWordProfile{}, fmt.Errorf("wakeword: need exactly %d samples, got %d", EnrollSamples, len(paths))
	}
	fps := make([][]float64, 0, EnrollSamples)
	for _, path := range paths {
		samples, err := e.readWAV(path)
		if err != nil {
			return model.WakeWordProfile{}, err
		}
		fps = append(fps, Fingerprint(samples))
	}
	template := AverageTemplate(fps)
	return e.store.Create(phrase, DefaultSensitivity, true, template)
}

// capture accumulates one fixed-duration recording from the stream.
func capture(ctx context.Context, frames <-chan []int16) ([]int16, error) {
	want := int(CaptureDuration.Seconds()) * SampleRate
	samples := make([]int16, 0, want)
	for len(samples) < want {
		select {
		case <-ctx.Done():
			return nil, ErrEnrollmentCancelled
		case frame, ok := <-frames:
			if !ok {
				return nil, ErrEnrollmentCancelled
			}
			samples = append(samples, frame...)
		}
	}
	return samples[:want], nil
}

func (e *Enroller) writeWAV(path string, samples []int16) error {
	f, err := e.fs.Create(path)
	if err != nil {
		return fmt.Errorf("wakeword: create sample file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wakeword: encode sample: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wakeword: finalize sample: %w", err)
	}
	return nil
}

func (e *Enroller) readWAV(path string) ([]int16, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wakeword: open sample: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wakeword: decode sample: %w", err)
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, nil
}
