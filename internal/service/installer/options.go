package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/cuda-installer/internal/config"
	"github.com/oshokin/cuda-installer/internal/domain/bundle"
	"github.com/oshokin/cuda-installer/internal/logger"
	"github.com/oshokin/cuda-installer/internal/repository/manifest"
	"github.com/oshokin/cuda-installer/internal/service/artifact"
	"github.com/oshokin/cuda-installer/internal/service/command"
	"github.com/oshokin/cuda-installer/internal/service/console"
	"github.com/oshokin/cuda-installer/internal/service/fetch"
	"github.com/oshokin/cuda-installer/internal/service/link"
	"github.com/oshokin/cuda-installer/internal/service/pacman"
	"github.com/oshokin/cuda-installer/internal/service/prompt"
	"github.com/oshokin/cuda-installer/internal/service/scratch"
)

// executableName is how a concurrent installer shows up in the process table.
const executableName = "cuda-installer"

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	// Exit terminates the process after an interrupt; os.Exit when nil.
	Exit func(int)
}

// Run executes one installation and is the public entry point for the CLI.
// A non-nil error means the process should exit with status 1.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, executableName)
	opts = withDefaults(opts)

	out := console.NewTerminal(opts.Stdout)
	finalizer := NewFinalizer(out)

	cfg, m, err := load(ctx, opts)
	if err != nil {
		out.Error("%v", err)
		finalizer.Finish(ctx, OutcomeFailed)

		return err
	}

	space, err := scratch.New(cfg.ScratchDir)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConfig, err)
		out.Error("%v", err)
		finalizer.Finish(ctx, OutcomeFailed)

		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	gate := new(Gate)
	controller := NewController(cancel, gate, finalizer, out, opts.Exit)
	controller.Start(ctx)

	defer controller.Stop()

	runner := &command.Exec{Stdin: opts.Stdin, Stdout: opts.Stdout, Stderr: opts.Stderr}
	manager := pacman.NewManager(gate.Runner(runner),
		pacman.WithSudo(cfg.UseSudo),
		pacman.WithBinary(cfg.PackageManager))

	deps := Dependencies{
		Manager:   manager,
		Checker:   pacman.NewChecker(manager),
		Links:     link.NewChecker(link.WithTimeout(cfg.ProbeTimeout)),
		Fetcher:   fetch.NewFetcher(fetch.WithTimeout(cfg.DownloadTimeout), fetch.WithTerminalProgress(opts.Stderr)),
		Scratch:   space,
		Prompter:  prompt.New(opts.Stdin, opts.Stdout),
		Console:   out,
		Finalizer: finalizer,
		Busy:      pacman.NewBusyGuard(filepath.Base(cfg.PackageManager), executableName),
	}

	if cfg.VerifyArtifacts {
		deps.Inspect = artifact.Inspect
	}

	logger.InfoKV(ctx, "Starting installation",
		"scratch_dir", cfg.ScratchDir, "package_manager", cfg.PackageManager)

	_, err = NewOrchestrator(m, deps, cfg.PinFile).Execute(runCtx)

	// An interrupt handler that already started owns the exit.
	if controller.Interrupted() {
		controller.Wait()
	}

	return err
}

func load(ctx context.Context, opts *Options) (*config.Config, *bundle.Manifest, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown log level %q", ErrConfig, cfg.LogLevel)
	}

	logger.SetLevel(level)

	repo := manifest.NewRepository(cfg.ManifestPath)

	m, err := repo.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	logger.DebugKV(ctx, "Manifest loaded", "source", repo.Source())

	return cfg, m, nil
}

func withDefaults(opts *Options) *Options {
	result := Options{}
	if opts != nil {
		result = *opts
	}

	if result.Stdin == nil {
		result.Stdin = os.Stdin
	}

	if result.Stdout == nil {
		result.Stdout = os.Stdout
	}

	if result.Stderr == nil {
		result.Stderr = os.Stderr
	}

	return &result
}
