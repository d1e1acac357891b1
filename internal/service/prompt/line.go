package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Line asks questions as numbered lists on plain streams.
// It reads input one byte at a time, so whatever follows the last answered
// line stays available to subprocesses sharing the same stdin.
type Line struct {
	in      io.Reader
	out     io.Writer
	pending chan lineResult
}

type lineResult struct {
	text string
	err  error
}

var _ Prompter = (*Line)(nil)

// NewLine creates a Line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{
		in:  in,
		out: out,
	}
}

// Select implements Prompter. The answer may be an option number or its label.
func (l *Line) Select(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errNoOptions
	}

	for {
		_, _ = fmt.Fprintln(l.out, title)
		for i, option := range options {
			_, _ = fmt.Fprintf(l.out, "  %d) %s\n", i+1, option)
		}

		_, _ = fmt.Fprint(l.out, "> ")

		answer, err := l.readLine(ctx)
		if err != nil {
			return 0, err
		}

		if i, ok := pick(answer, options); ok {
			return i, nil
		}

		_, _ = fmt.Fprintf(l.out, "Unknown choice %q\n", answer)
	}
}

// Confirm implements Prompter.
func (l *Line) Confirm(ctx context.Context, title string) (bool, error) {
	i, err := l.Select(ctx, title, []string{"Yes", "No"})
	if err != nil {
		return false, err
	}

	return i == 0, nil
}

// readLine waits for the next input line or context cancellation.
// A read abandoned on cancellation is picked up by the next call.
func (l *Line) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if l.pending == nil {
		l.pending = make(chan lineResult, 1)

		go func(in io.Reader, result chan<- lineResult) {
			text, err := readRawLine(in)
			result <- lineResult{text: text, err: err}
		}(l.in, l.pending)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-l.pending:
		l.pending = nil

		return r.text, r.err
	}
}

// readRawLine reads up to and including the next newline and nothing more.
func readRawLine(r io.Reader) (string, error) {
	var (
		line []byte
		b    [1]byte
	)

	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				return strings.TrimSpace(string(line)), nil
			}

			line = append(line, b[0])
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && len(line) > 0:
			return strings.TrimSpace(string(line)), nil
		case errors.Is(err, io.EOF):
			return "", ErrNoInput
		default:
			return "", err
		}
	}
}

func pick(answer string, options []string) (int, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}

		return 0, false
	}

	for i, option := range options {
		if strings.EqualFold(answer, option) {
			return i, true
		}
	}

	return 0, false
}
