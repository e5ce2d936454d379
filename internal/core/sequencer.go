package core

import (
	"runtime"
	"sync/atomic"
)

// AvailabilityLayout selects how the Sequencer lays out its per-slot
// published flags. Dense packs one atomic.Bool per slot with no padding,
// accepting some false sharing across adjacent slots; Padded gives each
// flag its own cache line, taking 68 bytes per flag instead of 4. §5's
// false-sharing policy recommends measuring both; dense is the default
// because producers and the consumer tend to touch different slots
// concurrently, which the policy notes tends to make it the faster
// choice in practice.
type AvailabilityLayout int

const (
	DenseAvailability AvailabilityLayout = iota
	PaddedAvailability
)

// availability is the per-slot "published" flag array, indexed by
// s & mask. Two layouts implement it; see AvailabilityLayout.
type availability interface {
	store(seq int64, v bool)
	load(seq int64) bool
}

type denseAvailability struct {
	mask  int64
	flags []atomic.Bool
}

func newDenseAvailability(capacity int64) *denseAvailability {
	return &denseAvailability{mask: capacity - 1, flags: make([]atomic.Bool, capacity)}
}

func (d *denseAvailability) store(seq int64, v bool) { d.flags[seq&d.mask].Store(v) }
func (d *denseAvailability) load(seq int64) bool     { return d.flags[seq&d.mask].Load() }

// paddedFlag isolates a single availability bit to its own cache line.
type paddedFlag struct {
	v atomic.Bool
	_ [cacheLineSize - 1]byte
}

type paddedAvailability struct {
	mask  int64
	flags []paddedFlag
}

func newPaddedAvailability(capacity int64) *paddedAvailability {
	return &paddedAvailability{mask: capacity - 1, flags: make([]paddedFlag, capacity)}
}

func (p *paddedAvailability) store(seq int64, v bool) { p.flags[seq&p.mask].v.Store(v) }
func (p *paddedAvailability) load(seq int64) bool     { return p.flags[seq&p.mask].v.Load() }

// SequencerConfig configures a Sequencer's construction.
type SequencerConfig struct {
	// BufferSize is the ring buffer capacity this sequencer gates
	// against. Must be a positive power of two.
	BufferSize int64

	// WaitStrategy is signaled on every publish and consulted by
	// consumers. Must be non-nil.
	WaitStrategy WaitStrategy

	// InitialCursor seeds both the cursor and the gating sequence.
	// DefaultSequencerConfig sets it to -1 ("nothing claimed/consumed
	// yet"); NewSequencer uses the value as given, so a config built
	// from the zero value starts at 0, not -1.
	InitialCursor int64

	// AvailabilityLayout picks the published-flags array shape.
	// Defaults to DenseAvailability.
	AvailabilityLayout AvailabilityLayout
}

// DefaultSequencerConfig returns a SequencerConfig with InitialCursor -1,
// DenseAvailability, and no wait strategy or buffer size set — callers
// must still supply both.
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{InitialCursor: -1, AvailabilityLayout: DenseAvailability}
}

// Sequencer is the multi-producer coordinator: it owns the cursor (the
// highest sequence ever claimed), the gating sequence (the highest
// sequence the consumer has released for reuse), and the per-slot
// availability flags. Producers race on Next/TryNext/NextBatch via CAS
// on the cursor; the single consumer advances only across contiguous
// published ranges via GetHighestPublished, preserving total order even
// when publish order differs from claim order.
type Sequencer struct {
	bufferSize int64
	mask       int64

	cursor *Sequence
	gating *Sequence
	avail  availability
	wait   WaitStrategy
}

// NewSequencer constructs a Sequencer per cfg. Returns ConfigurationError
// if BufferSize is not a positive power of two, or WaitStrategy is nil.
func NewSequencer(cfg SequencerConfig) (*Sequencer, error) {
	if cfg.BufferSize <= 0 || cfg.BufferSize&(cfg.BufferSize-1) != 0 {
		return nil, &ConfigurationError{Reason: "buffer size must be a positive power of two"}
	}
	if cfg.WaitStrategy == nil {
		return nil, &ConfigurationError{Reason: "wait strategy must not be nil"}
	}

	var avail availability
	switch cfg.AvailabilityLayout {
	case PaddedAvailability:
		avail = newPaddedAvailability(cfg.BufferSize)
	default:
		avail = newDenseAvailability(cfg.BufferSize)
	}

	return &Sequencer{
		bufferSize: cfg.BufferSize,
		mask:       cfg.BufferSize - 1,
		cursor:     NewSequence(cfg.InitialCursor),
		gating:     NewSequence(cfg.InitialCursor),
		avail:      avail,
		wait:       cfg.WaitStrategy,
	}, nil
}

// Next claims the next sequence number, blocking (spin-yield on the
// gating sequence) until there is room. It never fails — the caller
// either receives a sequence or the process is terminated externally.
func (s *Sequencer) Next() int64 {
	return s.NextBatch(1)
}

// NextBatch claims n consecutive sequence numbers and returns the first
// one in the range (the range is [result, result+n-1]). Blocks under
// backpressure exactly like Next.
func (s *Sequencer) NextBatch(n int64) int64 {
	current := s.cursor.Get()
	for {
		desired := current + n
		s.awaitRoomFor(desired)

		if s.cursor.CompareAndSet(&current, desired) {
			return current + 1
		}
		// current now holds the observed cursor value; retry.
	}
}

// TryNext attempts a single, non-blocking claim. On success it returns
// the claimed sequence and a nil error. On transient contention or a
// full buffer it returns NoSequenceAvailable and ErrBufferFull — an
// ordinary outcome, not an exceptional one.
func (s *Sequencer) TryNext() (int64, error) {
	current := s.cursor.Get()
	desired := current + 1

	if desired-s.bufferSize > s.gating.Get() {
		return NoSequenceAvailable, ErrBufferFull
	}
	if !s.cursor.CompareAndSet(&current, desired) {
		return NoSequenceAvailable, ErrBufferFull
	}
	return desired, nil
}

// awaitRoomFor spin-waits, yielding the processor between reloads of the
// gating sequence, until claiming up to "desired" would not overwrite a
// slot the consumer hasn't released. This is the only backpressure
// suspension point on the producer side.
func (s *Sequencer) awaitRoomFor(desired int64) {
	wrapPoint := desired - s.bufferSize
	for wrapPoint > s.gating.Get() {
		runtime.Gosched()
	}
}

// Publish marks sequence s as visible to the consumer and signals the
// wait strategy once. Callers must have finished writing
// RingBuffer.Slot(s) before calling Publish; this is a caller obligation,
// not something the Sequencer verifies at runtime (debug builds assert
// the sequence was actually claimed).
func (s *Sequencer) Publish(seq int64) {
	debugAssert(seq <= s.cursor.Get(), "publish(%d) exceeds cursor %d — sequence was never claimed", seq, s.cursor.Get())
	s.avail.store(seq, true)
	s.wait.Signal()
}

// PublishBatch marks every sequence in [lo, hi] inclusive as visible and
// signals the wait strategy exactly once for the whole range.
func (s *Sequencer) PublishBatch(lo, hi int64) {
	for seq := lo; seq <= hi; seq++ {
		debugAssert(seq <= s.cursor.Get(), "publish_batch: %d exceeds cursor %d", seq, s.cursor.Get())
		s.avail.store(seq, true)
	}
	s.wait.Signal()
}

// IsAvailable reports whether sequence s has been published and not yet
// consumed (MarkConsumed resets the flag for the next wrap generation).
func (s *Sequencer) IsAvailable(seq int64) bool {
	return s.avail.load(seq)
}

// GetHighestPublished returns the largest sequence h such that every
// sequence in [lower, h] is observed published, scanning forward from
// lower. It stops at the first gap and returns lower-1 if even "lower"
// itself is not yet available — the mechanism that preserves total order
// despite out-of-order publication. The scan never proceeds past upper;
// if everything through upper is available, it returns upper.
func (s *Sequencer) GetHighestPublished(lower, upper int64) int64 {
	for seq := lower; seq <= upper; seq++ {
		if !s.avail.load(seq) {
			return seq - 1
		}
	}
	return upper
}

// MarkConsumed clears the availability flag for slot s so a future
// producer that wraps around to the same slot doesn't see stale
// "published" state. Must be called once per processed sequence, before
// UpdateGatingSequence for that batch.
func (s *Sequencer) MarkConsumed(seq int64) {
	s.avail.store(seq, false)
}

// UpdateGatingSequence publishes the consumer's progress so producers
// can advance past backpressure. Call at most once per processed batch,
// after every MarkConsumed call in that batch.
func (s *Sequencer) UpdateGatingSequence(seq int64) {
	s.gating.Set(seq)
}

// GetCursor returns the highest sequence any producer has claimed.
func (s *Sequencer) GetCursor() int64 {
	return s.cursor.Get()
}

// GetGatingSequence returns the highest sequence the consumer has
// released for reuse.
func (s *Sequencer) GetGatingSequence() int64 {
	return s.gating.Get()
}

// RemainingCapacity returns the number of sequences that can currently
// be claimed without blocking.
func (s *Sequencer) RemainingCapacity() int64 {
	return s.bufferSize - (s.cursor.Get() - s.gating.Get())
}

// BufferSize returns the configured capacity.
func (s *Sequencer) BufferSize() int64 {
	return s.bufferSize
}

// Wait returns the wait strategy this sequencer signals and that
// consumers should wait on for this sequencer's cursor.
func (s *Sequencer) Wait() WaitStrategy {
	return s.wait
}

// Cursor exposes the underlying cursor Sequence, for callers (notably
// WaitStrategy.WaitFor) that need the Sequence value itself rather than
// a snapshot of it.
func (s *Sequencer) Cursor() *Sequence {
	return s.cursor
}
