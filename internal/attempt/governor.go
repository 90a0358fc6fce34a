// Package attempt bounds the number of (mirror, relay) attempts made by one
// resolution call.
package attempt

// DefaultCeiling is the attempt ceiling used when none is configured.
const DefaultCeiling = 20

// Governor is a per-call attempt counter. It moves from Remaining(n) to
// Remaining(n-1) on every RecordAttempt and becomes Exhausted at zero, after
// which ShouldAttempt always returns false.
//
// A Governor belongs to exactly one resolution call and is not safe for
// concurrent use.
type Governor struct {
	ceiling int
	used    int
}

// New creates a governor. A non-positive ceiling falls back to DefaultCeiling.
func New(ceiling int) *Governor {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Governor{ceiling: ceiling}
}

// ShouldAttempt reports whether another attempt may be made.
func (g *Governor) ShouldAttempt() bool {
	return g.used < g.ceiling
}

// RecordAttempt consumes one attempt. It is a no-op once exhausted.
func (g *Governor) RecordAttempt() {
	if g.used < g.ceiling {
		g.used++
	}
}

// Exhausted reports whether the terminal state has been reached.
func (g *Governor) Exhausted() bool {
	return !g.ShouldAttempt()
}

// Used returns the number of attempts consumed so far.
func (g *Governor) Used() int {
	return g.used
}

// Remaining returns the number of attempts left.
func (g *Governor) Remaining() int {
	return g.ceiling - g.used
}

// Ceiling returns the configured ceiling.
func (g *Governor) Ceiling() int {
	return g.ceiling
}
