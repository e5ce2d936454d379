package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDisruptor(t *testing.T, bufferSize int64) *Disruptor[int] {
	t.Helper()
	cfg := DefaultSequencerConfig()
	cfg.BufferSize = bufferSize
	cfg.WaitStrategy = NewBlockingWaitStrategy()
	d, err := NewDisruptor[int](cfg)
	require.NoError(t, err)
	return d
}

func TestDisruptor_ClaimWriteTryClaim(t *testing.T) {
	d := newTestDisruptor(t, 8)

	seq, slot := d.Claim()
	require.EqualValues(t, 0, seq)
	*slot = 42
	d.Publish(seq)

	require.Equal(t, 42, *d.RingBuffer().Slot(0))
	require.True(t, d.Sequencer().IsAvailable(0))

	for i := 0; i < 7; i++ {
		s, p, err := d.TryClaim()
		require.NoError(t, err)
		*p = i
		d.Publish(s)
	}

	_, _, err := d.TryClaim()
	require.ErrorIs(t, err, ErrBufferFull)
}

func TestConsumer_NextBatchAndMarkConsumed(t *testing.T) {
	d := newTestDisruptor(t, 16)

	for i := 0; i < 5; i++ {
		s, p := d.Claim()
		*p = i * 10
		d.Publish(s)
	}

	c := NewConsumer[int](d)
	lower, upper := c.NextBatch()
	require.EqualValues(t, 0, lower)
	require.EqualValues(t, 4, upper)

	sum := 0
	for s := lower; s <= upper; s++ {
		sum += *c.Slot(s)
	}
	require.Equal(t, 0+10+20+30+40, sum)

	c.MarkBatchConsumed(lower, upper)
	require.EqualValues(t, 4, d.Sequencer().GetGatingSequence())
	for s := lower; s <= upper; s++ {
		require.False(t, d.Sequencer().IsAvailable(s))
	}
}

func TestConsumer_BlocksUntilNextPublish(t *testing.T) {
	d := newTestDisruptor(t, 8)
	c := NewConsumer[int](d)

	result := make(chan int64, 1)
	go func() {
		_, upper := c.NextBatch()
		result <- upper
	}()

	s, p := d.Claim()
	*p = 7
	d.Publish(s)

	upper := <-result
	require.EqualValues(t, 0, upper)
}
