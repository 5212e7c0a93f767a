package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
)

// Command describes a single external command invocation.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExitError reports a command that ran to completion with a non-zero status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// Runner runs external commands. It exists so the engine client can be
// exercised in tests without a docker daemon.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands via os/exec. On context cancellation the entire
// process group is killed so the engine's child processes do not linger.
type ExecRunner struct{}

// Run executes the command, blocking until it completes or ctx is done.
func (ExecRunner) Run(ctx context.Context, command Command) error {
	cmd := exec.Command(command.Name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Stdin = command.Stdin
	cmd.Stdout = command.Stdout
	cmd.Stderr = command.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", command.Name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			// Negative PID targets the process group.
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return fmt.Errorf("%s cancelled: %w", command.Name, ctx.Err())
	case err := <-done:
		if err == nil {
			return nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: command.Name, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("%s failed: %w", command.Name, err)
	}
}
