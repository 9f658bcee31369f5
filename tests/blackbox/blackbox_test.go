//go:build blackbox

package blackbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var backtesterBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "backtester-blackbox-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	backtesterBin = filepath.Join(tmp, "backtester")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", backtesterBin, "../../cmd/backtester")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	cmd := exec.Command(backtesterBin, append([]string{"--env-file", ""}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}
