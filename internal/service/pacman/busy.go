package pacman

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrBusy is returned when a conflicting process is running.
var ErrBusy = errors.New("package manager is busy")

// BusyGuard looks for running processes that must not overlap with an install.
type BusyGuard struct {
	// names are the executable names that conflict with this run.
	names map[string]struct{}
	// self is the pid of the current process, which is always ignored.
	self int
	// list returns the process table.
	list func() ([]ps.Process, error)
}

// NewBusyGuard creates a guard for the given executable names.
func NewBusyGuard(names ...string) *BusyGuard {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return &BusyGuard{
		names: set,
		self:  os.Getpid(),
		list:  ps.Processes,
	}
}

// Check returns ErrBusy listing every conflicting process, or nil.
func (g *BusyGuard) Check() error {
	processes, err := g.list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	var found []string

	for _, p := range processes {
		if p.Pid() == g.self {
			continue
		}

		if _, ok := g.names[p.Executable()]; ok {
			found = append(found, fmt.Sprintf("%s (pid %d)", p.Executable(), p.Pid()))
		}
	}

	if len(found) > 0 {
		return fmt.Errorf("%w: %s", ErrBusy, strings.Join(found, ", "))
	}

	return nil
}
