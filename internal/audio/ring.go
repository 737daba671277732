package audio

import "sync"

// sampleRing is a bounded single-producer/single-consumer queue of sample
// buffers sitting between the capture callback and the spectral
// processor's tick. The producer (the portaudio callback) never blocks:
// when the ring is full, the oldest buffered chunk is dropped to make
// room, so a slow consumer loses resolution rather than stalling audio
// capture.
type sampleRing struct {
	mu      sync.Mutex
	buffers [][]float64
	cap     int
	dropped uint64
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{cap: capacity}
}

// Push enqueues buf, copying it so the caller's buffer can be reused.
// Reports whether an older buffer was dropped to make room.
func (r *sampleRing) Push(buf []float64) (dropped bool) {
	cp := make([]float64, len(buf))
	copy(cp, buf)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buffers) >= r.cap {
		r.buffers = r.buffers[1:]
		r.dropped++
		dropped = true
	}
	r.buffers = append(r.buffers, cp)
	return dropped
}

// Drain removes and returns every buffered chunk, oldest first.
func (r *sampleRing) Drain() [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.buffers
	r.buffers = nil
	return out
}

// Dropped returns the total number of buffers dropped for backpressure.
func (r *sampleRing) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
