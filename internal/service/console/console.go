package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gookit/color"
	"golang.org/x/term"
)

// printer is satisfied by *color.Theme and *color.Style.
type printer interface {
	Sprintf(format string, a ...any) string
}

var (
	styleInfo    printer = color.Info
	styleSuccess printer = color.Success
	styleWarn    printer = color.Warn
	styleError   printer = color.Error

	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#76B900"))
	styleBlock = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F5F")).
			Padding(0, 1)
)

// Console writes leveled lines to an output stream.
type Console struct {
	out     io.Writer
	colored bool
}

// New creates a Console. Colors are applied only when colored is set.
func New(out io.Writer, colored bool) *Console {
	return &Console{out: out, colored: colored}
}

// NewTerminal creates a Console on f, colored when f is a terminal.
func NewTerminal(f *os.File) *Console {
	return New(f, term.IsTerminal(int(f.Fd()))) //nolint:gosec // Descriptors fit in int.
}

// Info prints a neutral status line.
func (c *Console) Info(format string, args ...any) {
	c.line(styleInfo, format, args...)
}

// Success prints a success line.
func (c *Console) Success(format string, args ...any) {
	c.line(styleSuccess, format, args...)
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...any) {
	c.line(styleWarn, format, args...)
}

// Error prints an error line.
func (c *Console) Error(format string, args ...any) {
	c.line(styleError, format, args...)
}

// Block prints a titled list of lines, framed on terminals.
func (c *Console) Block(title string, lines []string) {
	if !c.colored {
		_, _ = fmt.Fprintln(c.out, title)
		for _, line := range lines {
			_, _ = fmt.Fprintln(c.out, "  "+line)
		}

		return
	}

	body := styleTitle.Render(title) + "\n" + strings.Join(lines, "\n")
	_, _ = fmt.Fprintln(c.out, styleBlock.Render(body))
}

func (c *Console) line(p printer, format string, args ...any) {
	if !c.colored {
		_, _ = fmt.Fprintf(c.out, format+"\n", args...)

		return
	}

	_, _ = fmt.Fprintln(c.out, p.Sprintf(format, args...))
}
