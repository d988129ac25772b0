//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("MURMUR_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "MURMUR_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runMurmur drives the binary's -test harness over stdin and returns
// everything it printed. The harness runs the real daemon loop against
// a fake microphone and a fake engine, so no hardware is needed.
func runMurmur(t *testing.T, stdin string) string {
	t.Helper()
	cmd := exec.Command(testBinary, "-test", "-log-path", t.TempDir())
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("murmur exited with error: %v\noutput: %s", err, out)
	}
	return string(out)
}

func TestToggleRoundTrip(t *testing.T) {
	out := runMurmur(t, cmds("TOGGLE", "TOGGLE", "WAIT", "QUIT"))
	if !strings.Contains(out, "DELIVERED: the quick brown fox") {
		t.Errorf("expected delivered text in output:\n%s", out)
	}
	if !strings.Contains(out, "DONE") {
		t.Errorf("expected DONE marker in output:\n%s", out)
	}
}

func TestBackToBackCycles(t *testing.T) {
	out := runMurmur(t, cmds(
		"TOGGLE", "TOGGLE", "WAIT",
		"TOGGLE", "TOGGLE", "WAIT",
		"QUIT"))
	if got := strings.Count(out, "DELIVERED:"); got != 2 {
		t.Errorf("delivered %d times, want 2\noutput:\n%s", got, out)
	}
}

func TestRapidToggles(t *testing.T) {
	out := runMurmur(t, cmds(
		"TOGGLE", "SLEEP 50", "TOGGLE", "WAIT",
		"TOGGLE", "SLEEP 50", "TOGGLE", "WAIT",
		"TOGGLE", "SLEEP 50", "TOGGLE", "WAIT",
		"QUIT"))
	if got := strings.Count(out, "DELIVERED:"); got != 3 {
		t.Errorf("delivered %d times, want 3\noutput:\n%s", got, out)
	}
}

func TestQuitWhileRecording(t *testing.T) {
	// Exit must be clean even mid-recording; runMurmur fails the test
	// on a non-zero exit.
	_ = runMurmur(t, cmds("TOGGLE", "QUIT"))
}
