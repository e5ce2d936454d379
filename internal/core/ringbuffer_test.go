package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBuffer_RejectsNonPowerOfTwo(t *testing.T) {
	_, err := NewRingBuffer[int](0)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewRingBuffer[int](1000)
	require.Error(t, err)

	_, err = NewRingBuffer[int](-8)
	require.Error(t, err)
}

func TestRingBuffer_AcceptsPowerOfTwo(t *testing.T) {
	rb, err := NewRingBuffer[int](1024)
	require.NoError(t, err)
	require.EqualValues(t, 1024, rb.Capacity())
}

func TestRingBuffer_SlotWrapsAround(t *testing.T) {
	rb, err := NewRingBuffer[string](8)
	require.NoError(t, err)

	for k := int64(0); k < 4; k++ {
		for s := int64(0); s < 8; s++ {
			a := rb.Slot(s)
			b := rb.Slot(s + k*8)
			require.Same(t, a, b, "slot(%d) and slot(%d) must alias", s, s+k*8)
		}
	}
}

func TestRingBuffer_SlotReadWrite(t *testing.T) {
	rb, err := NewRingBuffer[int](4)
	require.NoError(t, err)

	*rb.Slot(0) = 100
	*rb.Slot(5) = 200 // wraps to same slot as 1, distinct from 0
	require.Equal(t, 100, *rb.Slot(4))
	require.Equal(t, 200, *rb.Slot(1))
}
