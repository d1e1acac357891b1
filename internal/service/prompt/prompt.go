package prompt

import (
	"context"
	"errors"
	"os"

	"golang.org/x/term"
)

var (
	// ErrAborted is returned when the operator abandons a prompt.
	ErrAborted = errors.New("prompt aborted")
	// ErrNoInput is returned when the input ends before an answer is given.
	ErrNoInput = errors.New("no input available")
	// errNoOptions is returned for a selection without options.
	errNoOptions = errors.New("no options to select from")
)

// Prompter asks questions and returns the answers.
type Prompter interface {
	// Select returns the index of the chosen option.
	Select(ctx context.Context, title string, options []string) (int, error)
	// Confirm returns true when the operator answers yes.
	Confirm(ctx context.Context, title string) (bool, error)
}

// New returns a huh-based Prompter when both streams are terminals and a
// line-based one otherwise.
func New(in, out *os.File) Prompter {
	if isTerminal(in) && isTerminal(out) {
		return NewForm(in, out)
	}

	return NewLine(in, out)
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd())) //nolint:gosec // Descriptors fit in int.
}
