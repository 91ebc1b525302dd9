// Package bitops holds the fixed width-32 constant and the
// debug-invariant helper shared across pkg/synth, so the fixed bit
// width the synthesis core uses and the "append-only pool" invariant
// it depends on are defined in one place instead of re-derived at each
// call site. It holds no arithmetic helpers of its own.
package bitops

// Width is the process-wide fixed bit-vector width.
const Width = 32

// AssertMonotonic panics if next < prev — a failing call is always a
// bug, never a recoverable condition. It is only ever called from
// tests and from the Converter's hole-pool bookkeeping, never on a
// path whose safety can't already be proven by construction.
func AssertMonotonic(prev, next int) {
	if next < prev {
		panic("bitops: append-only invariant violated: pool shrank")
	}
}
