package wakeword

import "sync"

// ringBuffer holds the trailing audio window the detector scores.
// Writers feed PCM frames; the reader snapshots the window oldest-first.
type ringBuffer struct {
	mu     sync.Mutex
	buffer []int16
	head   int
	filled int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{buffer: make([]int16, size)}
}

func (r *ringBuffer) Add(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}
	r.filled += len(samples)
	if r.filled > len(r.buffer) {
		r.filled = len(r.buffer)
	}
}

// Read returns the full window oldest-first.
func (r *ringBuffer) Read() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	samples := make([]int16, len(r.buffer))
	for i := 0; i < len(r.buffer); i++ {
		samples[i] = r.buffer[(r.head+i)%len(r.buffer)]
	}
	return samples
}

// Full reports whether a complete window has been written since the last
// Clear.
func (r *ringBuffer) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filled >= len(r.buffer)
}

func (r *ringBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buffer {
		r.buffer[i] = 0
	}
	r.head = 0
	r.filled = 0
}
