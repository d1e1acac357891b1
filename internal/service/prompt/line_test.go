package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLineSelect accepts numbers and labels and re-asks on unknown answers.
func TestLineSelect(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	l := NewLine(strings.NewReader("7\ncompatible\n2\n"), &out)
	options := []string{"Recent", "Compatible"}

	i, err := l.Select(context.Background(), "Which bundle?", options)
	require.NoError(t, err)
	require.Equal(t, 1, i)
	require.Contains(t, out.String(), `Unknown choice "7"`)
	require.Contains(t, out.String(), "  1) Recent\n  2) Compatible\n")

	i, err = l.Select(context.Background(), "Again?", options)
	require.NoError(t, err)
	require.Equal(t, 1, i)
}

// TestLineConfirm maps the first option to yes and reports exhausted input.
func TestLineConfirm(t *testing.T) {
	t.Parallel()

	l := NewLine(strings.NewReader("yes\nNo\n"), io.Discard)

	ok, err := l.Confirm(context.Background(), "Proceed?")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Confirm(context.Background(), "Proceed?")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = l.Confirm(context.Background(), "Proceed?")
	require.ErrorIs(t, err, ErrNoInput)
}

// TestLineCancelled returns the context error while waiting for input.
func TestLineCancelled(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLine(r, io.Discard).Select(ctx, "Which?", []string{"a"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewLine(r, io.Discard).Select(context.Background(), "Which?", nil)
	require.ErrorIs(t, err, errNoOptions)
}

// TestLineLeavesRemainingInput consumes nothing past the answered lines, so a
// subprocess sharing stdin still sees the rest.
func TestLineLeavesRemainingInput(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("1\n1\ny\n")
	l := NewLine(in, io.Discard)

	i, err := l.Select(context.Background(), "Which bundle?", []string{"Recent", "Compatible"})
	require.NoError(t, err)
	require.Zero(t, i)

	ok, err := l.Confirm(context.Background(), "Proceed?")
	require.NoError(t, err)
	require.True(t, ok)

	rest, err := io.ReadAll(in)
	require.NoError(t, err)
	require.Equal(t, "y\n", string(rest))
}

// TestLineLastLineWithoutNewline accepts an answer terminated by the end of input.
func TestLineLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	i, err := NewLine(strings.NewReader(" 2 "), io.Discard).
		Select(context.Background(), "Which bundle?", []string{"Recent", "Compatible"})
	require.NoError(t, err)
	require.Equal(t, 1, i)
}

// TestLineCancelledWhileWaiting stops waiting when the context ends mid-read.
func TestLineCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		_, err := NewLine(r, io.Discard).Select(ctx, "Which?", []string{"a"})
		done <- err
	}()

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
