package cli

import (
	"os"
	"testing"
)

type fakeTerminalDetector struct {
	result bool
	calls  int
}

func (f *fakeTerminalDetector) IsTerminal(fd int) bool {
	f.calls++
	return f.result
}

func TestIsInteractiveTerminalUsesDetector(t *testing.T) {
	detector := &fakeTerminalDetector{result: true}
	c := &CLI{terminalDetector: detector}

	if !c.isInteractiveTerminal(1) {
		t.Error("expected detector result to be returned")
	}
	if detector.calls != 1 {
		t.Errorf("expected 1 detector call, got %d", detector.calls)
	}

	detector.result = false
	if c.isInteractiveTerminal(1) {
		t.Error("expected detector result to be returned")
	}
}

func TestIsInteractiveTerminalDefaultsDetector(t *testing.T) {
	c := &CLI{}

	// A pipe is not a terminal regardless of environment.
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if c.isInteractiveTerminal(int(r.Fd())) {
		t.Error("pipe should not be detected as a terminal")
	}
	if c.terminalDetector == nil {
		t.Error("expected default detector to be installed")
	}
}
