// Package persona derives and maintains the personality prompt that makes a
// clone speak as its human.
package persona

// Result carries the outcome of an operation with a fallback chain. Degraded
// means a fallback value replaced the primary path; callers still get usable
// output but can surface the reason.
type Result struct {
	Value    string
	Degraded bool
	Reason   string
}

// Ok wraps a value produced by the primary path.
func Ok(v string) Result {
	return Result{Value: v}
}

// Fallback wraps a substitute value with the reason the primary path failed.
func Fallback(v, reason string) Result {
	return Result{Value: v, Degraded: true, Reason: reason}
}
