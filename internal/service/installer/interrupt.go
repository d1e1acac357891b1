package installer

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/oshokin/cuda-installer/internal/logger"
)

// Controller routes SIGINT and SIGTERM into the shared Finalizer.
type Controller struct {
	cancel    context.CancelCauseFunc
	gate      *Gate
	finalizer *Finalizer
	console   Reporter
	exit      func(int)

	signals     chan os.Signal
	quit        chan struct{}
	stopOnce    sync.Once
	interrupted atomic.Bool
	handled     sync.WaitGroup

	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

// NewController wires the interrupt path. cancel aborts the run context,
// gate is waited on before cleanup and exit terminates the process.
func NewController(
	cancel context.CancelCauseFunc,
	gate *Gate,
	finalizer *Finalizer,
	console Reporter,
	exit func(int),
) *Controller {
	if exit == nil {
		exit = os.Exit
	}

	return &Controller{
		cancel:    cancel,
		gate:      gate,
		finalizer: finalizer,
		console:   console,
		exit:      exit,
		signals:   make(chan os.Signal, 1),
		quit:      make(chan struct{}),
		notify:    signal.Notify,
		stop:      signal.Stop,
	}
}

// Start subscribes to SIGINT and SIGTERM. It must be called once.
func (c *Controller) Start(ctx context.Context) {
	c.notify(c.signals, syscall.SIGINT, syscall.SIGTERM)

	go c.loop(ctx)
}

// Stop unsubscribes from signals. An interrupt already being handled still completes.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.stop(c.signals)
		close(c.quit)
	})
}

// Interrupted reports whether a signal has been received.
func (c *Controller) Interrupted() bool {
	return c.interrupted.Load()
}

// Wait blocks until a started interrupt handling has finished.
func (c *Controller) Wait() {
	c.handled.Wait()
}

func (c *Controller) loop(ctx context.Context) {
	for {
		select {
		case <-c.quit:
			return
		case sig := <-c.signals:
			if !c.interrupted.CompareAndSwap(false, true) {
				logger.WarnKV(ctx, "Ignoring repeated signal, cleanup is in progress", "signal", sig.String())

				continue
			}

			c.handled.Add(1)

			go c.handle(ctx, sig)
		}
	}
}

func (c *Controller) handle(ctx context.Context, sig os.Signal) {
	defer c.handled.Done()

	logger.InfoKV(ctx, "Signal received", "signal", sig.String())
	c.console.Error("Installation was interrupted by the user. Cleaning up...")

	c.cancel(ErrInterrupted)
	c.gate.Wait()

	code, performed := c.finalizer.Finish(context.WithoutCancel(ctx), OutcomeInterrupted)
	if performed {
		c.exit(code)
	}
}
