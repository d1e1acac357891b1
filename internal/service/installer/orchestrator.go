package installer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
	"github.com/oshokin/cuda-installer/internal/logger"
	"github.com/oshokin/cuda-installer/internal/service/artifact"
	"github.com/oshokin/cuda-installer/internal/service/prompt"
)

const (
	titleChooseBundle = "Choose the version of CUDA you want to install:"
	titleProceed      = "Would you like to proceed with the installation?"
)

// PackageManager mutates the host package database.
type PackageManager interface {
	Update(ctx context.Context, deps []string) error
	Install(ctx context.Context, paths []string) error
}

// InstallChecker reports whether a package is installed at the expected version.
type InstallChecker interface {
	IsInstalled(ctx context.Context, spec bundle.PackageSpec) bool
}

// LinkChecker reports whether a URL answers with 200 OK.
type LinkChecker interface {
	IsReachable(ctx context.Context, url string) bool
}

// Fetcher downloads a URL into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (int64, error)
}

// ScratchSpace is the staging directory for downloads.
type ScratchSpace interface {
	Remover
	Create() error
	Path(name string) string
}

// BusyChecker refuses to run next to a conflicting process.
type BusyChecker interface {
	Check() error
}

// Reporter prints user-facing status lines.
type Reporter interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Block(title string, lines []string)
}

// Inspector reads package metadata from a downloaded archive.
type Inspector func(path string) (*artifact.Info, error)

// Dependencies are the collaborators of an Orchestrator.
// Busy and Inspect are optional.
type Dependencies struct {
	Manager   PackageManager
	Checker   InstallChecker
	Links     LinkChecker
	Fetcher   Fetcher
	Scratch   ScratchSpace
	Prompter  prompt.Prompter
	Console   Reporter
	Finalizer *Finalizer
	Busy      BusyChecker
	Inspect   Inspector
}

// Orchestrator runs one installation.
type Orchestrator struct {
	Dependencies

	manifest *bundle.Manifest
	pinFile  string
}

// NewOrchestrator creates an Orchestrator for manifest.
// pinFile is the pacman configuration named in the pinning guidance.
func NewOrchestrator(manifest *bundle.Manifest, deps Dependencies, pinFile string) *Orchestrator {
	if deps.Finalizer == nil {
		deps.Finalizer = NewFinalizer(deps.Console)
	}

	return &Orchestrator{
		Dependencies: deps,
		manifest:     manifest,
		pinFile:      pinFile,
	}
}

// Execute runs the installation and always finishes through the Finalizer.
// It returns the exit code and the error that ended the run, if any.
func (o *Orchestrator) Execute(ctx context.Context) (int, error) {
	err := o.Run(ctx)

	outcome := Classify(ctx, err)
	if outcome == OutcomeFailed {
		o.Console.Error("%v", err)
	}

	if err != nil {
		logger.DebugKV(ctx, "Run stopped", "outcome", outcome.String(), "error", err)
	}

	// When an interrupt handler finished first, it owns the process exit.
	code, _ := o.Finalizer.Finish(context.WithoutCancel(ctx), outcome)

	if err == nil && outcome != OutcomeSuccess {
		err = ErrInterrupted
	}

	return code, err
}

// Run performs every step up to, but not including, cleanup.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.initialize(ctx); err != nil {
		return err
	}

	selection, err := o.selectBundle(ctx)
	if err != nil {
		return err
	}

	if err = o.confirmProceed(ctx); err != nil {
		return err
	}

	if err = o.downloadPhase(ctx, selection); err != nil {
		return err
	}

	if err = o.installPhase(ctx, selection); err != nil {
		return err
	}

	o.finalize(selection.Bundle())

	return nil
}

// initialize refuses to run next to pacman, refreshes prerequisites and creates scratch space.
func (o *Orchestrator) initialize(ctx context.Context) error {
	if o.Busy != nil {
		if err := o.Busy.Check(); err != nil {
			return fmt.Errorf("%w: %w", ErrPackageManagerBusy, err)
		}
	}

	if deps := o.manifest.DepList(); len(deps) > 0 {
		o.Console.Info("Updating system dependencies: %s", strings.Join(deps, " "))

		if err := o.Manager.Update(ctx, deps); err != nil {
			o.Console.Error("Failed to install dependencies: %v", err)
			logger.WarnKV(ctx, "Continuing without prerequisites", "error", fmt.Errorf("%w: %w", ErrDependencyUpdate, err))
		} else {
			o.Console.Success("Dependencies installed successfully: %s", strings.Join(deps, " "))
		}
	}

	// An interrupt during the update already owns cleanup.
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}

	err := o.Finalizer.Arm(o.Scratch, o.Scratch.Create)

	switch {
	case errors.Is(err, errFinished):
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrScratchSpace, err)
	}

	o.Console.Success("Tmp directory created: %s", o.Scratch.Root())

	return nil
}

// selectBundle asks for a variant and shows what it supports.
func (o *Orchestrator) selectBundle(ctx context.Context) (*bundle.Selection, error) {
	variants := bundle.Variants()

	titles := make([]string, 0, len(variants))
	for _, v := range variants {
		titles = append(titles, v.Title())
	}

	i, err := o.Prompter.Select(ctx, titleChooseBundle, titles)
	if err != nil {
		return nil, promptError(err)
	}

	if i < 0 || i >= len(variants) {
		return nil, fmt.Errorf("%w: choice %d out of range", ErrPrompt, i)
	}

	variant := variants[i]

	b, err := o.manifest.Bundle(variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	o.Console.Block(variant.Title()+" supports:", b.Support)
	logger.InfoKV(ctx, "Bundle selected", "variant", string(variant), "packages", b.Identifiers())

	return bundle.NewSelection(variant, b), nil
}

// confirmProceed turns a negative answer into ErrCancelled.
func (o *Orchestrator) confirmProceed(ctx context.Context) error {
	ok, err := o.Prompter.Confirm(ctx, titleProceed)
	if err != nil {
		return promptError(err)
	}

	if !ok {
		o.Console.Warn("User declined to proceed with the installation.")

		return ErrCancelled
	}

	return nil
}

// downloadPhase plans every role first, so an unreachable link aborts the run
// before anything is fetched, then downloads the planned roles in order.
func (o *Orchestrator) downloadPhase(ctx context.Context, selection *bundle.Selection) error {
	b := selection.Bundle()

	var planned []bundle.Role

	for _, role := range bundle.Roles() {
		spec := b.Package(role)

		if o.Checker.IsInstalled(ctx, spec) {
			o.Console.Warn("Package already installed: %s %s", spec.Identifier, spec.Version)

			continue
		}

		if !o.Links.IsReachable(ctx, spec.URL) {
			return fmt.Errorf("%w: %s: %s", ErrLinkUnreachable, spec.Identifier, spec.URL)
		}

		logger.DebugKV(ctx, "Valid link", "role", role.String(), "url", spec.URL)

		planned = append(planned, role)
	}

	for _, role := range planned {
		spec := b.Package(role)
		dest := o.Scratch.Path(spec.Name)

		o.Console.Info("Downloading %s...", spec.Name)

		if _, err := o.Fetcher.Fetch(ctx, spec.URL, dest); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDownload, spec.Name, err)
		}

		if err := o.verify(ctx, spec, dest); err != nil {
			return err
		}

		selection.MarkDownloaded(role)
		o.Console.Success("Package downloaded successfully: %s", spec.Name)
	}

	return nil
}

// verify checks a downloaded archive when inspection is enabled.
// Archives that cannot be read are accepted with a warning, since pacman validates them again.
func (o *Orchestrator) verify(ctx context.Context, spec bundle.PackageSpec, path string) error {
	if o.Inspect == nil {
		return nil
	}

	info, err := o.Inspect(path)
	if err != nil {
		o.Console.Warn("Could not inspect %s: %v", spec.Name, err)

		return nil
	}

	logger.DebugKV(ctx, "Artifact inspected",
		"name", info.Name, "version", info.Version, "format", string(info.Format),
		"blake3", info.Digest, "bytes", info.Size)

	if err = info.Verify(spec); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArtifactMismatch, spec.Name, err)
	}

	return nil
}

// installPhase runs one install per non-empty batch. A failed batch is
// reported and neither the other batch nor the run stops because of it.
func (o *Orchestrator) installPhase(ctx context.Context, selection *bundle.Selection) error {
	downloaded, err := selection.Downloaded()
	if err != nil {
		return err
	}

	if downloaded.Empty() {
		o.Console.Info("Every package is already installed, nothing to do")

		return nil
	}

	for _, batch := range bundle.Batches() {
		members := batch.Members(downloaded)
		if len(members) == 0 {
			continue
		}

		paths := make([]string, 0, len(members))
		names := make([]string, 0, len(members))

		for _, role := range members {
			spec := selection.Bundle().Package(role)
			paths = append(paths, o.Scratch.Path(spec.Name))
			names = append(names, spec.Identifier)
		}

		o.Console.Info("Installing %s", strings.Join(names, ", "))

		if err = o.Manager.Install(ctx, paths); err != nil {
			o.Console.Error("%s was not installed successfully: %v", strings.Join(names, ", "), err)
			logger.ErrorKV(ctx, "Batch failed",
				"batch", batch.Name, "error", fmt.Errorf("%w: %w", ErrInstall, err))

			continue
		}

		o.Console.Success("%s installed successfully.", strings.Join(names, ", "))
	}

	return nil
}

// finalize prints the post-install guidance.
func (o *Orchestrator) finalize(b *bundle.Bundle) {
	for _, section := range guidance(b, o.pinFile) {
		o.Console.Block(section.title, section.lines)
	}
}

func promptError(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	return fmt.Errorf("%w: %w", ErrPrompt, err)
}
