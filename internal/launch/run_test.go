package launch

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestRun_MasksOutputAndReturnsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	var out bytes.Buffer
	code, err := Run(context.Background(), RunConfig{
		Command:  "echo connected as SCOTT/tiger; exit 3",
		Secrets:  []string{"tiger"},
		Stdin:    strings.NewReader(""),
		Stdout:   &out,
		Stderr:   &out,
		Platform: Linux,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if got := out.String(); strings.Contains(got, "tiger") || !strings.Contains(got, "SCOTT/[REDACTED_BY_DCCM]") {
		t.Errorf("output = %q", got)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	if _, err := Run(context.Background(), RunConfig{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}
