package core

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestSequence_CacheLineSize(t *testing.T) {
	var s Sequence
	require.EqualValues(t, cacheLineSize, unsafe.Sizeof(s), "Sequence must occupy exactly one cache line")
}

func TestSequence_InitialValue(t *testing.T) {
	s := NewSequence(-1)
	require.EqualValues(t, -1, s.Get())
}

func TestSequence_IncrementAndGet(t *testing.T) {
	s := NewSequence(-1)
	v := s.IncrementAndGet()
	require.EqualValues(t, 0, v)
	require.GreaterOrEqual(t, s.Get(), v)
}

func TestSequence_AddAndGet(t *testing.T) {
	s := NewSequence(0)
	require.EqualValues(t, 5, s.AddAndGet(5))
	require.EqualValues(t, 8, s.AddAndGet(3))
}

func TestSequence_SetGet(t *testing.T) {
	s := NewSequence(0)
	s.Set(42)
	require.EqualValues(t, 42, s.Get())
}

func TestSequence_CompareAndSet_Success(t *testing.T) {
	s := NewSequence(10)
	expected := int64(10)
	ok := s.CompareAndSet(&expected, 11)
	require.True(t, ok)
	require.EqualValues(t, 11, s.Get())
	require.EqualValues(t, 10, expected, "expected is left untouched on success")
}

func TestSequence_CompareAndSet_FailureWritesActual(t *testing.T) {
	s := NewSequence(10)
	expected := int64(999) // deliberately stale
	ok := s.CompareAndSet(&expected, 11)
	require.False(t, ok)
	require.EqualValues(t, 10, expected, "failed CAS must write the observed value into expected")
	require.EqualValues(t, 10, s.Get(), "value must be unchanged on failure")
}

func TestSequence_GetRelaxed(t *testing.T) {
	s := NewSequence(7)
	require.EqualValues(t, 7, s.GetRelaxed())
}
