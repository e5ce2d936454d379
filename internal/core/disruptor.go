package core

// Disruptor composes one RingBuffer[T] and one Sequencer — the
// non-cyclic aggregate §3 and §9 describe: the Sequencer owns its
// cursor, gating sequence, availability flags and wait strategy; the
// RingBuffer is a sibling with no synchronization of its own. Producers
// and the single consumer hold only non-owning references to both.
type Disruptor[T any] struct {
	ring *RingBuffer[T]
	seq  *Sequencer
}

// NewDisruptor builds a Disruptor[T] whose ring buffer and sequencer
// share the same capacity and wait strategy.
func NewDisruptor[T any](cfg SequencerConfig) (*Disruptor[T], error) {
	ring, err := NewRingBuffer[T](cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	seq, err := NewSequencer(cfg)
	if err != nil {
		return nil, err
	}
	return &Disruptor[T]{ring: ring, seq: seq}, nil
}

// Sequencer exposes the underlying Sequencer for callers that need the
// full claim/publish/consume contract directly.
func (d *Disruptor[T]) Sequencer() *Sequencer { return d.seq }

// RingBuffer exposes the underlying RingBuffer.
func (d *Disruptor[T]) RingBuffer() *RingBuffer[T] { return d.ring }

// Claim claims the next sequence, blocking under backpressure, and
// returns both the sequence and a pointer to its slot ready to be
// written.
func (d *Disruptor[T]) Claim() (int64, *T) {
	seq := d.seq.Next()
	return seq, d.ring.Slot(seq)
}

// TryClaim is the non-blocking counterpart of Claim.
func (d *Disruptor[T]) TryClaim() (int64, *T, error) {
	seq, err := d.seq.TryNext()
	if err != nil {
		return NoSequenceAvailable, nil, err
	}
	return seq, d.ring.Slot(seq), nil
}

// Publish marks seq (whose slot the caller has already written) as
// visible to the consumer.
func (d *Disruptor[T]) Publish(seq int64) {
	d.seq.Publish(seq)
}

// Consumer tracks one single-threaded reader's progress through a
// Disruptor. It implements the consumer-side loop §2 describes: wait for
// a contiguous published range, hand the batch to the caller, then mark
// every consumed sequence and advance the gating sequence once.
type Consumer[T any] struct {
	d    *Disruptor[T]
	next int64
}

// NewConsumer returns a Consumer starting immediately after the
// sequencer's current gating sequence (so on a fresh sequencer the first
// batch begins at sequence 0 when InitialCursor was -1).
func NewConsumer[T any](d *Disruptor[T]) *Consumer[T] {
	return &Consumer[T]{d: d, next: d.seq.GetGatingSequence() + 1}
}

// NextBatch blocks (via the Sequencer's wait strategy) until at least
// one new sequence is available, then returns the contiguous range
// [lower, upper] ready to be read from the ring buffer. The caller must
// invoke MarkBatchConsumed with the same upper bound once processing
// completes.
func (c *Consumer[T]) NextBatch() (lower, upper int64) {
	lower = c.next
	for {
		// WaitFor returns once lower has been claimed; the claiming
		// producer may not have published it yet, so re-check until the
		// scan yields a non-empty range.
		available := c.d.seq.Wait().WaitFor(lower, c.d.seq.Cursor())
		upper = c.d.seq.GetHighestPublished(lower, available)
		if upper >= lower {
			return lower, upper
		}
	}
}

// Slot returns the value at sequence s in the underlying ring buffer.
func (c *Consumer[T]) Slot(s int64) *T {
	return c.d.ring.Slot(s)
}

// MarkBatchConsumed marks every sequence in [lower, upper] consumed,
// advances the gating sequence to upper, and moves this consumer's
// position past the batch. Call once per NextBatch, after processing
// every slot in the returned range.
func (c *Consumer[T]) MarkBatchConsumed(lower, upper int64) {
	for seq := lower; seq <= upper; seq++ {
		c.d.seq.MarkConsumed(seq)
	}
	c.d.seq.UpdateGatingSequence(upper)
	c.next = upper + 1
}
