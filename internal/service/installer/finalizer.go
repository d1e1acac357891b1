package installer

import (
	"context"
	"errors"
	"sync"

	"github.com/oshokin/cuda-installer/internal/logger"
)

const (
	messageSuccess = "Installation completed successfully!"
	messageExited  = "Installation exited!"
)

// errFinished is returned by Arm once cleanup has begun.
var errFinished = errors.New("cleanup already started")

// Remover deletes the scratch directory.
type Remover interface {
	Root() string
	Remove() error
}

// Finalizer is the single cleanup-and-report step shared by the main flow
// and the interrupt controller.
type Finalizer struct {
	once     sync.Once
	mu       sync.Mutex
	console  Reporter
	scratch  Remover
	finished bool
	code     int
}

// NewFinalizer creates a Finalizer reporting through console.
func NewFinalizer(console Reporter) *Finalizer {
	return &Finalizer{console: console}
}

// Arm registers the scratch directory to remove on finish and runs create
// while no finish can start, so a directory is never created after cleanup.
// Until it is called no directory is touched. A nil create only registers.
func (f *Finalizer) Arm(scratch Remover, create func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.finished {
		return errFinished
	}

	f.scratch = scratch

	if create == nil {
		return nil
	}

	return create()
}

// Finish removes the scratch directory and prints the final message for outcome.
// Only the first call does anything; performed is true for that call alone.
// Every call returns the exit code chosen by the first one.
func (f *Finalizer) Finish(ctx context.Context, outcome Outcome) (code int, performed bool) {
	f.once.Do(func() {
		performed = true
		f.code = f.finish(ctx, outcome)
	})

	return f.code, performed
}

func (f *Finalizer) finish(ctx context.Context, outcome Outcome) int {
	f.mu.Lock()
	f.finished = true
	scratch := f.scratch
	f.mu.Unlock()

	if scratch != nil {
		if err := scratch.Remove(); err != nil {
			f.console.Error("Failed to remove tmp directory: %v", err)
			f.console.Warn("Please remove the tmp directory manually at %s", scratch.Root())
		} else {
			f.console.Success("Tmp directory removed: %s", scratch.Root())
		}
	}

	logger.InfoKV(ctx, "Run finished", "outcome", outcome.String())

	if outcome == OutcomeSuccess {
		f.console.Success(messageSuccess)
	} else {
		f.console.Error(messageExited)
	}

	return outcome.ExitCode()
}
