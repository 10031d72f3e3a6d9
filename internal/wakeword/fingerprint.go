package wakeword

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// SampleRate is the PCM rate the detector and enrollment expect.
	SampleRate = 16000

	frameSize = 512
	frameHop  = 256

	// fingerprint shape: timeSlots x freqBands values.
	timeSlots = 32
	freqBands = 16
)

// Fingerprint reduces a PCM window to a fixed-size spectral template:
// per-frame FFT magnitudes folded into log-spaced bands, frames folded
// into a fixed number of time slots, then L2-normalized. Comparable
// across recordings of different lengths.
func Fingerprint(samples []int16) []float64 {
	if len(samples) < frameSize {
		return make([]float64, timeSlots*freqBands)
	}

	frames := (len(samples) - frameSize) / frameHop
	if frames < 1 {
		frames = 1
	}

	fp := make([]float64, timeSlots*freqBands)
	counts := make([]int, timeSlots)

	buf := make([]float64, frameSize)
	for f := 0; f < frames; f++ {
		off := f * frameHop
		for i := 0; i < frameSize; i++ {
			// Hann window keeps band energy estimates stable at frame edges.
			w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(frameSize-1)))
			buf[i] = float64(samples[off+i]) / 32768.0 * w
		}

		spectrum := fft.FFTReal(buf)
		slot := f * timeSlots / frames

		bins := frameSize / 2
		for b := 0; b < freqBands; b++ {
			lo := bandEdge(b, bins)
			hi := bandEdge(b+1, bins)
			var energy float64
			for k := lo; k < hi && k < bins; k++ {
				energy += cmplxAbs(spectrum[k])
			}
			fp[slot*freqBands+b] += energy
		}
		counts[slot]++
	}

	for s := 0; s < timeSlots; s++ {
		if counts[s] > 0 {
			for b := 0; b < freqBands; b++ {
				fp[s*freqBands+b] /= float64(counts[s])
			}
		}
	}

	normalize(fp)
	return fp
}

// bandEdge maps band index to an FFT bin on a log scale, so low
// frequencies, where speech lives, get finer resolution.
func bandEdge(band, bins int) int {
	frac := float64(band) / float64(freqBands)
	return int(math.Pow(float64(bins), frac))
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

// Similarity is the cosine similarity of two fingerprints, in [0, 1]
// for the non-negative band energies used here.
func Similarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// AverageTemplate folds several enrollment fingerprints into one
// normalized template.
func AverageTemplate(fps [][]float64) []float64 {
	if len(fps) == 0 {
		return nil
	}
	out := make([]float64, len(fps[0]))
	for _, fp := range fps {
		for i := range fp {
			out[i] += fp[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(fps))
	}
	normalize(out)
	return out
}

// rms returns the root-mean-square level of the window, in [0, 1].
func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// EncodeTemplate serializes a fingerprint for storage.
func EncodeTemplate(fp []float64) []byte {
	out := make([]byte, 8*len(fp))
	for i, v := range fp {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

// DecodeTemplate deserializes a stored fingerprint.
func DecodeTemplate(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("wakeword: template blob length %d not a multiple of 8", len(b))
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}
