package risk

import "fmt"

// Status tags an estimator outcome so callers can tell a confident
// model output from a degraded-but-valid safe default and from a real
// fault.
type Status int

const (
	// StatusOK means the value came from the loaded model artifact.
	StatusOK Status = iota
	// StatusFallback means the value is a documented deterministic
	// default, with Reason explaining why the model was bypassed.
	StatusFallback
	// StatusFatal means a configuration-level fault (for example a
	// feature-column contract mismatch). Never produced on the quote
	// path; surfaced at artifact load time.
	StatusFatal
)

// Result is a tagged estimator outcome.
type Result struct {
	Value  float64
	Status Status
	Reason string // fallback reason code, empty when OK
	Err    error  // set only for StatusFatal
}

// OK wraps a model-backed value.
func OK(v float64) Result {
	return Result{Value: v, Status: StatusOK}
}

// Fallback wraps a safe default with a reason code.
func Fallback(v float64, format string, args ...interface{}) Result {
	return Result{Value: v, Status: StatusFallback, Reason: fmt.Sprintf(format, args...)}
}

// Fatal wraps a configuration fault.
func Fatal(err error) Result {
	return Result{Status: StatusFatal, Err: err}
}
