package classify

import (
	"errors"
	"strings"
	"testing"
)

func TestStrategyNext(t *testing.T) {
	s := DefaultStrategy()

	b, ok := s.Next(0, nil)
	if !ok || b != BackendGPU {
		t.Fatalf("attempt 0: got %q ok=%v", b, ok)
	}

	oom := &RunError{Backend: BackendGPU, ExitCode: 1, Stderr: "RuntimeError: CUDA error: out of memory"}
	b, ok = s.Next(1, oom)
	if !ok || b != BackendCPU {
		t.Fatalf("attempt 1 after exhaustion: got %q ok=%v", b, ok)
	}

	badInput := &RunError{Backend: BackendGPU, ExitCode: 2, Stderr: "invalid input file"}
	if _, ok := s.Next(1, badInput); ok {
		t.Fatal("non-exhaustion failure must not retry")
	}

	if _, ok := s.Next(2, oom); ok {
		t.Fatal("no third attempt")
	}
}

func TestPinnedStrategyNoFallback(t *testing.T) {
	s := PinnedStrategy(BackendCPU)

	b, ok := s.Next(0, nil)
	if !ok || b != BackendCPU {
		t.Fatalf("attempt 0: got %q ok=%v", b, ok)
	}

	oom := &RunError{Backend: BackendCPU, ExitCode: 1, Stderr: "out of memory"}
	if _, ok := s.Next(1, oom); ok {
		t.Fatal("pinned strategy must not retry on another device")
	}
}

func TestIsResourceExhausted(t *testing.T) {
	cases := []struct {
		stderr string
		want   bool
	}{
		{"RuntimeError: CUDA error: out of memory", true},
		{"torch.cuda.OutOfMemoryError: CUDA out of memory. Tried to allocate 2.00 GiB", true},
		{"CUBLAS_STATUS_ALLOC_FAILED", true},
		{"grpc: RESOURCE_EXHAUSTED", true},
		{"FileNotFoundError: model.pt", false},
		{"", false},
	}
	for _, tc := range cases {
		err := &RunError{Backend: BackendGPU, ExitCode: 1, Stderr: tc.stderr}
		if got := IsResourceExhausted(err); got != tc.want {
			t.Errorf("stderr %q: got %v want %v", tc.stderr, got, tc.want)
		}
	}

	if IsResourceExhausted(errors.New("out of memory")) {
		t.Fatal("plain errors carry no stderr and must not match")
	}
	if IsResourceExhausted(nil) {
		t.Fatal("nil error")
	}
}

func TestRunErrorMessage(t *testing.T) {
	err := &RunError{Backend: BackendGPU, ExitCode: 3, Stderr: "cannot load checkpoint model.pt"}
	msg := err.Error()
	if !strings.Contains(msg, "exit code 3") || !strings.Contains(msg, "cuda") {
		t.Fatalf("message missing run detail: %s", msg)
	}
	if !strings.Contains(msg, "checkpoint") {
		t.Fatalf("message missing model guidance: %s", msg)
	}
}
