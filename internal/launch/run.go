package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// RunConfig describes a formulated command to execute.
type RunConfig struct {
	Command string
	Dir     string
	Secrets []string // masked in stdout/stderr
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	// Platform picks the shell: cmd /c on Windows, sh -c elsewhere.
	Platform Platform
}

func shellCommand(ctx context.Context, p Platform, command string) *exec.Cmd {
	if p == Windows {
		return exec.CommandContext(ctx, "cmd", "/c", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// Run executes cfg.Command through the platform shell with masked output,
// forwarding interrupts to the child. Returns the child's exit code.
func Run(ctx context.Context, cfg RunConfig) (int, error) {
	if cfg.Command == "" {
		return 1, errors.New("no command to run")
	}
	if cfg.Platform == "" {
		cfg.Platform = CurrentPlatform()
	}

	cmd := shellCommand(ctx, cfg.Platform, cfg.Command)
	cmd.Dir = cfg.Dir
	if cmd.Dir != "" {
		if _, err := os.Stat(cmd.Dir); err != nil {
			cmd.Dir = ""
		}
	}

	cmd.Stdin = cfg.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	stdoutMasker := NewMaskingWriter(stdout, cfg.Secrets)
	stderrMasker := NewMaskingWriter(stderr, cfg.Secrets)
	cmd.Stdout = stdoutMasker
	cmd.Stderr = stderrMasker

	// Platform-specific process attributes (e.g. Pdeathsig on Linux)
	setProcAttr(cmd)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start command: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	_ = stdoutMasker.Flush()
	_ = stderrMasker.Flush()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("wait command: %w", err)
	}
	return 0, nil
}
