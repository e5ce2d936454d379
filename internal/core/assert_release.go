//go:build !debug

package core

// debugAssert is a no-op in release builds; see assert.go for the
// debug-tagged version.
func debugAssert(cond bool, format string, args ...any) {}
