package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/oshokin/cuda-installer/internal/logger"
)

// maxStderrInError caps how much captured stderr is copied into an error.
const maxStderrInError = 2048

// Runner executes external programs.
type Runner interface {
	// Capture runs the program and returns its standard output.
	Capture(ctx context.Context, name string, args ...string) (string, error)
	// Interactive runs the program attached to the terminal streams.
	Interactive(ctx context.Context, name string, args ...string) error
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Stdin, Stdout and Stderr are used by Interactive; nil means the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*Exec)(nil)

// NewExec returns a Runner wired to the process standard streams.
func NewExec() *Exec {
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Capture implements Runner.
func (e *Exec) Capture(ctx context.Context, name string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line := Line(name, args...)
	logger.DebugKV(ctx, "Running command", "command", line, "interactive", false)

	var stdout, stderr bytes.Buffer

	cmd := exec.Command(name, args...) //nolint:gosec,noctx // Started calls are never cancelled.
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &Error{Command: line, Stderr: truncate(stderr.String()), Err: err}
	}

	return stdout.String(), nil
}

// Interactive implements Runner.
func (e *Exec) Interactive(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line := Line(name, args...)
	logger.DebugKV(ctx, "Running command", "command", line, "interactive", true)

	cmd := exec.Command(name, args...) //nolint:gosec,noctx // Started calls are never cancelled.
	cmd.Stdin = orReader(e.Stdin, os.Stdin)
	cmd.Stdout = orWriter(e.Stdout, os.Stdout)
	cmd.Stderr = orWriter(e.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		return &Error{Command: line, Err: err}
	}

	return nil
}

// Error describes a failed program run.
type Error struct {
	// Command is the rendered command line.
	Command string
	// Stderr holds captured diagnostics, if any.
	Stderr string
	// Err is the underlying start or wait error.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the program exit status, or -1 if it never ran to completion.
func (e *Error) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// Line renders a command for logs and messages.
func Line(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}

	return name + " " + strings.Join(args, " ")
}

// Elevate prefixes the command with sudo when useSudo is set and euid is not root.
func Elevate(euid int, useSudo bool, name string, args ...string) (string, []string) {
	if !useSudo || euid == 0 {
		return name, args
	}

	return "sudo", append([]string{name}, args...)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderrInError {
		return s
	}

	return s[:maxStderrInError] + "..."
}

func orReader(r, fallback io.Reader) io.Reader {
	if r == nil {
		return fallback
	}

	return r
}

func orWriter(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}

	return w
}
