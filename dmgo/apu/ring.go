package apu

import "sync/atomic"

// sampleRingCapacity bounds the cross-thread audio buffer. A full buffer
// drops samples (bounded memory, no backpressure into the emulation
// thread); an empty buffer yields silence (no underrun glitches).
const sampleRingCapacity = 16384

// ring is a lock-free single-producer/single-consumer ring buffer of
// mono float samples. The producer (APU.Step, on the emulation thread)
// only calls push; the consumer (a host's audio callback thread) only
// calls pop. head/tail are published with atomic release/acquire so
// neither side needs a mutex.
type ring struct {
	buf  [sampleRingCapacity]float32
	head atomic.Uint64 // next write slot, producer-owned
	tail atomic.Uint64 // next read slot, consumer-owned
}

func (r *ring) push(sample float32) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= sampleRingCapacity {
		// Buffer full: drop the sample rather than block or grow.
		return
	}
	r.buf[head%sampleRingCapacity] = sample
	r.head.Store(head + 1)
}

func (r *ring) pop() (float32, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail >= head {
		return 0, false
	}
	sample := r.buf[tail%sampleRingCapacity]
	r.tail.Store(tail + 1)
	return sample, true
}

// Len reports how many unread samples are buffered.
func (r *ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}
