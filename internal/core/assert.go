//go:build debug

package core

import "fmt"

// debugAssert panics with a formatted message when cond is false. Built
// only under the "debug" tag, so the hot path pays nothing for it in
// release builds. Used by Publish and PublishBatch to catch publishing a
// sequence the caller never claimed; a shutdown path that skips
// SignalAll is not checked.
func debugAssert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("disruptor: assertion failed: "+format, args...))
	}
}
