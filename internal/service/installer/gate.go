package installer

import (
	"context"
	"sync"

	"github.com/oshokin/cuda-installer/internal/service/command"
)

// Gate serializes subprocess calls with the interrupt handler.
// A call holds the gate for its whole duration, so waiting on the gate
// means waiting for the in-flight subprocess to return on its own.
type Gate struct {
	mu sync.Mutex
}

// Wait blocks until no subprocess call is in flight.
func (g *Gate) Wait() {
	g.mu.Lock()
	g.mu.Unlock() //nolint:staticcheck // Empty critical section is the point.
}

// Runner wraps r so every call passes through the gate.
// Calls started after ctx is cancelled fail without running anything.
func (g *Gate) Runner(r command.Runner) command.Runner {
	return &gatedRunner{gate: g, runner: r}
}

type gatedRunner struct {
	gate   *Gate
	runner command.Runner
}

func (g *gatedRunner) Capture(ctx context.Context, name string, args ...string) (string, error) {
	g.gate.mu.Lock()
	defer g.gate.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return g.runner.Capture(ctx, name, args...)
}

func (g *gatedRunner) Interactive(ctx context.Context, name string, args ...string) error {
	g.gate.mu.Lock()
	defer g.gate.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return g.runner.Interactive(ctx, name, args...)
}
