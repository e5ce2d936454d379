package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitStrategies_RejectDependentSequence(t *testing.T) {
	strategies := []WaitStrategy{
		BusySpinWaitStrategy{},
		YieldingWaitStrategy{},
		NewBlockingWaitStrategy(),
		NewTimeoutBlockingWaitStrategy(10 * time.Millisecond),
	}

	cursor := NewSequence(0)
	for _, ws := range strategies {
		_, err := ws.WaitForDependent(0, cursor, cursor)
		require.Error(t, err)
		var notSupported *NotSupportedError
		require.ErrorAs(t, err, &notSupported)
	}
}

func TestBusySpinWaitStrategy_ReturnsImmediatelyWhenReady(t *testing.T) {
	cursor := NewSequence(5)
	got := BusySpinWaitStrategy{}.WaitFor(3, cursor)
	require.EqualValues(t, 5, got)
}

func TestYieldingWaitStrategy_UnblocksOnCursorAdvance(t *testing.T) {
	cursor := NewSequence(0)
	ws := YieldingWaitStrategy{}

	done := make(chan int64, 1)
	go func() { done <- ws.WaitFor(10, cursor) }()

	time.Sleep(5 * time.Millisecond)
	cursor.Set(10)

	select {
	case v := <-done:
		require.EqualValues(t, 10, v)
	case <-time.After(time.Second):
		t.Fatal("YieldingWaitStrategy did not observe cursor advance in time")
	}
}

// TestBlockingWaitStrategy_Wakeup is scenario S6: a consumer blocked on
// WaitFor(10, cursor) with cursor=0 must return once a producer sets
// cursor=10 and calls Signal, in bounded time.
func TestBlockingWaitStrategy_Wakeup(t *testing.T) {
	cursor := NewSequence(0)
	ws := NewBlockingWaitStrategy()

	result := make(chan int64, 1)
	go func() {
		result <- ws.WaitFor(10, cursor)
	}()

	time.Sleep(5 * time.Millisecond) // give the consumer time to block
	cursor.Set(10)
	ws.Signal()

	select {
	case v := <-result:
		require.EqualValues(t, 10, v)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("BlockingWaitStrategy did not wake within 100ms")
	}
}

func TestTimeoutBlockingWaitStrategy_WakesOnTimeoutWithoutSignal(t *testing.T) {
	cursor := NewSequence(0)
	ws := NewTimeoutBlockingWaitStrategy(5 * time.Millisecond)

	result := make(chan int64, 1)
	go func() {
		result <- ws.WaitFor(1, cursor)
	}()

	// No signal at all: the strategy must still notice the cursor
	// advance on its next timeout-driven re-check.
	time.Sleep(2 * time.Millisecond)
	cursor.Set(1)

	select {
	case v := <-result:
		require.EqualValues(t, 1, v)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("TimeoutBlockingWaitStrategy did not re-check predicate after timeout")
	}
}

func TestTimeoutBlockingWaitStrategy_WakesOnSignal(t *testing.T) {
	cursor := NewSequence(0)
	ws := NewTimeoutBlockingWaitStrategy(time.Second) // long timeout: signal must do the work

	result := make(chan int64, 1)
	go func() { result <- ws.WaitFor(10, cursor) }()

	time.Sleep(5 * time.Millisecond)
	cursor.Set(10)
	ws.Signal()

	select {
	case v := <-result:
		require.EqualValues(t, 10, v)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("TimeoutBlockingWaitStrategy did not wake on Signal before its timeout elapsed")
	}
}

func TestBlockingWaitStrategy_SignalAllUnblocksEveryWaiter(t *testing.T) {
	cursor := NewSequence(0)
	ws := NewBlockingWaitStrategy()

	const waiters = 4
	results := make(chan int64, waiters)
	for i := 0; i < waiters; i++ {
		go func() { results <- ws.WaitFor(10, cursor) }()
	}

	time.Sleep(5 * time.Millisecond)
	cursor.Set(10)
	ws.SignalAll()

	for i := 0; i < waiters; i++ {
		select {
		case v := <-results:
			require.EqualValues(t, 10, v)
		case <-time.After(200 * time.Millisecond):
			t.Fatal("SignalAll did not wake every waiter")
		}
	}
}
