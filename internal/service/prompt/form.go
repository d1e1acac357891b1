package prompt

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"
)

// Form renders prompts as interactive huh forms.
type Form struct {
	in  io.Reader
	out io.Writer
}

var _ Prompter = (*Form)(nil)

// NewForm creates a Form on the given streams.
func NewForm(in io.Reader, out io.Writer) *Form {
	return &Form{in: in, out: out}
}

// Select implements Prompter.
func (f *Form) Select(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errNoOptions
	}

	choices := make([]huh.Option[int], 0, len(options))
	for i, option := range options {
		choices = append(choices, huh.NewOption(option, i))
	}

	var choice int

	field := huh.NewSelect[int]().
		Title(title).
		Options(choices...).
		Value(&choice)

	if err := f.run(ctx, field); err != nil {
		return 0, err
	}

	return choice, nil
}

// Confirm implements Prompter.
func (f *Form) Confirm(ctx context.Context, title string) (bool, error) {
	var answer bool

	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	if err := f.run(ctx, field); err != nil {
		return false, err
	}

	return answer, nil
}

func (f *Form) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(f.in).
		WithOutput(f.out)

	err := form.RunWithContext(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return ErrAborted
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return err
	}
}
