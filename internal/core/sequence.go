// Package core implements the disruptor-style MPSC-ordered ring buffer:
// a bounded, lock-free, multi-producer/single-consumer sequence
// coordinator. The package has no third-party dependencies. Claim,
// publish and consume coordinate through atomics only; the Blocking and
// TimeoutBlocking wait strategies add a mutex and condition variable.
package core

import "sync/atomic"

// cacheLineSize is the padding target for Sequence. 64 bytes covers the
// overwhelming majority of current x86-64 and arm64 parts; wider
// prefetch-pair architectures (128 bytes) are a documented non-goal.
const cacheLineSize = 64

// Sequence is a cache-line-isolated, monotonically non-decreasing signed
// 64-bit counter. It is the sole mutable field in its cache line, so two
// adjacent Sequences never cause false sharing between the threads that
// touch them independently.
//
// The zero value is not ready for use; construct with NewSequence.
type Sequence struct {
	value atomic.Int64
	_     [cacheLineSize - 8]byte
}

// NewSequence constructs a Sequence with the given initial value.
// Per the data model, -1 means "nothing claimed or consumed yet"; the
// first sequence a producer ever claims is 0.
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.Store(initial)
	return s
}

// Get returns the current value with acquire ordering.
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set stores v with release ordering.
func (s *Sequence) Set(v int64) {
	s.value.Store(v)
}

// IncrementAndGet atomically adds 1 and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.Add(1)
}

// AddAndGet atomically adds delta and returns the new value.
func (s *Sequence) AddAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

// CompareAndSet attempts to swap the value from *expected to desired.
// On success it returns true. On failure it writes the actual current
// value into *expected so the caller can retry without a second load,
// mirroring the C++ compare_exchange_weak contract this is grounded on.
func (s *Sequence) CompareAndSet(expected *int64, desired int64) bool {
	if s.value.CompareAndSwap(*expected, desired) {
		return true
	}
	*expected = s.value.Load()
	return false
}

// GetRelaxed returns the current value, for diagnostics. Go's sync/atomic
// has no relaxed load, so this performs the same ordered Load as Get.
func (s *Sequence) GetRelaxed() int64 {
	return s.value.Load()
}
