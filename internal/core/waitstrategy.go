package core

import (
	"runtime"
	"sync"
	"time"
)

// WaitStrategy decides how a consumer thread that finds "target not yet
// published" spends its time until the target becomes available, and
// how producers wake it back up.
type WaitStrategy interface {
	// WaitFor blocks, in whatever sense this strategy chooses, until
	// cursor.Get() >= target, then returns the observed cursor value.
	// Implementations must re-check the predicate on spurious wakeups.
	WaitFor(target int64, cursor *Sequence) int64

	// WaitForDependent is reserved for future multi-stage pipelines
	// where a consumer waits on another consumer's sequence in addition
	// to the producer cursor. None of the four strategies below support
	// it; they return NotSupportedError.
	WaitForDependent(target int64, cursor *Sequence, dependent *Sequence) (int64, error)

	// Signal wakes at least one waiter.
	Signal()

	// SignalAll wakes every waiter. Used on shutdown to guarantee a
	// blocked consumer leaves its wait even with no new sequence to
	// report.
	SignalAll()
}

func noDependentSequenceSupport(name string) error {
	return &NotSupportedError{Reason: name + " does not support a dependent sequence"}
}

// BusySpinWaitStrategy spins on an acquire-ordered load of the cursor
// with no back-off. Lowest latency (~50-100ns observed), 100% of a core.
// Signal and SignalAll are no-ops: a spinning waiter observes the new
// cursor value on its next load regardless of any wakeup.
type BusySpinWaitStrategy struct{}

func (BusySpinWaitStrategy) WaitFor(target int64, cursor *Sequence) int64 {
	for {
		if available := cursor.Get(); available >= target {
			return available
		}
	}
}

func (BusySpinWaitStrategy) WaitForDependent(int64, *Sequence, *Sequence) (int64, error) {
	return 0, noDependentSequenceSupport("BusySpinWaitStrategy")
}

func (BusySpinWaitStrategy) Signal()    {}
func (BusySpinWaitStrategy) SignalAll() {}

// YieldingSpins is the number of busy-spin iterations YieldingWaitStrategy
// attempts before yielding the processor.
const YieldingSpins = 100

// YieldingWaitStrategy spins for up to YieldingSpins iterations, then
// calls runtime.Gosched and resets its counter. Balanced latency
// (~200ns) against CPU usage compared to BusySpin.
type YieldingWaitStrategy struct{}

func (YieldingWaitStrategy) WaitFor(target int64, cursor *Sequence) int64 {
	spins := 0
	for {
		available := cursor.Get()
		if available >= target {
			return available
		}
		spins++
		if spins >= YieldingSpins {
			runtime.Gosched()
			spins = 0
		}
	}
}

func (YieldingWaitStrategy) WaitForDependent(int64, *Sequence, *Sequence) (int64, error) {
	return 0, noDependentSequenceSupport("YieldingWaitStrategy")
}

func (YieldingWaitStrategy) Signal()    {}
func (YieldingWaitStrategy) SignalAll() {}

// BlockingWaitStrategy parks the consumer on a condition variable,
// predicated on cursor.Get() >= target. Lowest CPU usage (~0%), highest
// latency (~5µs). signal wakes one waiter; signalAll wakes every waiter.
type BlockingWaitStrategy struct {
	mu sync.Mutex
	cv *sync.Cond
}

// NewBlockingWaitStrategy constructs a ready-to-use BlockingWaitStrategy.
func NewBlockingWaitStrategy() *BlockingWaitStrategy {
	b := &BlockingWaitStrategy{}
	b.cv = sync.NewCond(&b.mu)
	return b
}

func (b *BlockingWaitStrategy) WaitFor(target int64, cursor *Sequence) int64 {
	if available := cursor.Get(); available >= target {
		return available
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		available := cursor.Get()
		if available >= target {
			return available
		}
		b.cv.Wait()
	}
}

func (b *BlockingWaitStrategy) WaitForDependent(int64, *Sequence, *Sequence) (int64, error) {
	return 0, noDependentSequenceSupport("BlockingWaitStrategy")
}

func (b *BlockingWaitStrategy) Signal() {
	b.mu.Lock()
	b.cv.Signal()
	b.mu.Unlock()
}

func (b *BlockingWaitStrategy) SignalAll() {
	b.mu.Lock()
	b.cv.Broadcast()
	b.mu.Unlock()
}

// DefaultTimeoutBlockingInterval is the per-wait-cycle timeout used when
// none is supplied to NewTimeoutBlockingWaitStrategy.
const DefaultTimeoutBlockingInterval = 100 * time.Millisecond

// TimeoutBlockingWaitStrategy behaves like BlockingWaitStrategy but wakes
// at least once per configured interval even without a signal, so a
// caller can observe an external shutdown flag within a bounded time.
type TimeoutBlockingWaitStrategy struct {
	mu      sync.Mutex
	cv      *sync.Cond
	timeout time.Duration
}

// NewTimeoutBlockingWaitStrategy constructs a TimeoutBlockingWaitStrategy
// with the given per-cycle timeout. A non-positive timeout falls back to
// DefaultTimeoutBlockingInterval.
func NewTimeoutBlockingWaitStrategy(timeout time.Duration) *TimeoutBlockingWaitStrategy {
	if timeout <= 0 {
		timeout = DefaultTimeoutBlockingInterval
	}
	t := &TimeoutBlockingWaitStrategy{timeout: timeout}
	t.cv = sync.NewCond(&t.mu)
	return t
}

func (t *TimeoutBlockingWaitStrategy) WaitFor(target int64, cursor *Sequence) int64 {
	if available := cursor.Get(); available >= target {
		return available
	}

	for {
		available := cursor.Get()
		if available >= target {
			return available
		}
		t.waitOnce()
	}
}

// waitOnce parks for at most t.timeout. sync.Cond has no native timed
// wait, so a helper goroutine converts the timer into a Broadcast; this
// keeps the predicate loop in WaitFor identical in shape to Blocking's.
func (t *TimeoutBlockingWaitStrategy) waitOnce() {
	// Hold the lock before arming the timer: its callback cannot
	// Broadcast until Wait has released the lock, so the timeout wake is
	// never lost.
	t.mu.Lock()
	timer := time.AfterFunc(t.timeout, func() {
		t.mu.Lock()
		t.cv.Broadcast()
		t.mu.Unlock()
	})
	defer timer.Stop()

	t.cv.Wait()
	t.mu.Unlock()
}

func (t *TimeoutBlockingWaitStrategy) WaitForDependent(int64, *Sequence, *Sequence) (int64, error) {
	return 0, noDependentSequenceSupport("TimeoutBlockingWaitStrategy")
}

func (t *TimeoutBlockingWaitStrategy) Signal() {
	t.mu.Lock()
	t.cv.Signal()
	t.mu.Unlock()
}

func (t *TimeoutBlockingWaitStrategy) SignalAll() {
	t.mu.Lock()
	t.cv.Broadcast()
	t.mu.Unlock()
}
