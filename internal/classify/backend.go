// Package classify drives the external DeBERTa classifier binary that
// separates live secrets from noise, and models its verdicts.
package classify

import (
	"errors"
	"fmt"
	"strings"
)

// Backend identifies a classifier execution device.
type Backend string

const (
	// BackendGPU runs the model on CUDA.
	BackendGPU Backend = "cuda"
	// BackendCPU runs the model on the host CPU.
	BackendCPU Backend = "cpu"
)

// ErrBackendsExhausted reports that the primary device failed with a
// resource-exhaustion error and the fallback device failed too.
var ErrBackendsExhausted = errors.New("all classifier backends failed")

// Strategy fixes the device order for classification runs.
type Strategy struct {
	Primary  Backend
	Fallback Backend
}

// DefaultStrategy tries CUDA first and falls back to the CPU.
func DefaultStrategy() Strategy {
	return Strategy{Primary: BackendGPU, Fallback: BackendCPU}
}

// PinnedStrategy runs on a single device with no fallback.
func PinnedStrategy(b Backend) Strategy {
	return Strategy{Primary: b, Fallback: b}
}

// Next returns the device for the given attempt. Attempt 0 always runs on
// the primary device. A resource-exhaustion failure earns exactly one retry
// on the fallback; any other failure, or a fallback failure, stops.
func (s Strategy) Next(attempt int, prev error) (Backend, bool) {
	switch attempt {
	case 0:
		return s.Primary, true
	case 1:
		if s.Fallback != s.Primary && IsResourceExhausted(prev) {
			return s.Fallback, true
		}
	}
	return "", false
}

// RunError carries one failed classifier invocation. The stderr tail is
// kept so callers can distinguish device exhaustion from bad input.
type RunError struct {
	Backend  Backend
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("classifier failed on %s (exit code %d)", e.Backend, e.ExitCode)
	stderr := strings.ToLower(e.Stderr)
	switch {
	case strings.Contains(stderr, "model") || strings.Contains(stderr, "checkpoint"):
		msg += "\n\nModel checkpoint error detected. Check:\n" +
			"  - classifier.model points at the fine-tuned .pt checkpoint\n" +
			"  - The checkpoint matches the installed wrapper version"
	case strings.Contains(stderr, "permission denied"):
		msg += "\n\nPermission denied. Check:\n" +
			"  - The classifier binary has execute permissions\n" +
			"  - You have read access to the input file"
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\n\nClassifier error output:\n%s", e.Stderr)
	}
	return msg
}

func (e *RunError) Unwrap() error { return e.Err }

// exhaustionMarkers are stderr fragments indicating the device ran out of
// memory rather than the input being bad. Matching is case-insensitive.
var exhaustionMarkers = []string{
	"out of memory",
	"cuda error",
	"cublas",
	"resource_exhausted",
}

// IsResourceExhausted reports whether err looks like a device memory
// failure worth retrying on another backend.
func IsResourceExhausted(err error) bool {
	var re *RunError
	if !errors.As(err, &re) {
		return false
	}
	stderr := strings.ToLower(re.Stderr)
	for _, marker := range exhaustionMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}
