package installer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
	"github.com/oshokin/cuda-installer/internal/service/artifact"
	"github.com/oshokin/cuda-installer/internal/service/prompt"
)

var (
	toolchain = []bundle.Role{bundle.RoleCompiler, bundle.RoleCompilerLibs}
	toolkit   = []bundle.Role{bundle.RolePrimary, bundle.RoleCompanion}
)

// TestExecuteSuccess downloads in role order, installs in two batches and prints guidance.
func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)

	all := h.names(bundle.VariantRecent, bundle.RoleCompiler, bundle.RoleCompilerLibs, bundle.RolePrimary, bundle.RoleCompanion)
	require.Equal(t, all, h.fetcher.fetched)
	require.Equal(t, []string{"gcc12", "gcc12-libs", "cuda", "cudnn"}, h.checker.queried)
	require.Equal(t, [][]string{{"base-devel", "curl"}}, h.manager.updates)
	require.Equal(t, [][]string{
		h.scratchPaths(h.names(bundle.VariantRecent, toolchain...)...),
		h.scratchPaths(h.names(bundle.VariantRecent, toolkit...)...),
	}, h.manager.installs)

	require.NoDirExists(t, h.scratch.Root())
	require.Contains(t, h.out.String(), "IgnorePkg = gcc12 gcc12-libs cuda cudnn")
	require.Contains(t, h.out.String(), "export XLA_FLAGS=--xla_gpu_cuda_data_dir=/opt/cuda")
	require.Equal(t, 1, h.count("Installation completed successfully!"))
	require.Zero(t, h.count("Installation exited!"))
}

// TestExecuteCompatibleVariant installs the second bundle when it is chosen.
func TestExecuteCompatibleVariant(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.prompter.choice = 1

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, []string{"gcc11", "gcc11-libs", "cuda", "cudnn"}, h.checker.queried)
	require.Contains(t, h.out.String(), "Compatible supports:")
}

// TestExecuteDecline cancels without downloads or installs and still cleans up.
func TestExecuteDecline(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.prompter.proceed = false

	code, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrCancelled)
	require.Equal(t, 1, code)
	require.Empty(t, h.fetcher.fetched)
	require.Empty(t, h.manager.installs)
	require.NoDirExists(t, h.scratch.Root())
	require.Equal(t, 1, h.count("Installation exited!"))
	require.NotContains(t, h.out.String(), "IgnorePkg")
}

// TestExecuteUnreachableLink aborts before any fetch when the first link fails.
func TestExecuteUnreachableLink(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	b, _ := h.manifest.Bundle(bundle.VariantRecent)
	h.links.unreachable[b.Compiler.URL] = true

	code, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrLinkUnreachable)
	require.Equal(t, 1, code)
	require.Empty(t, h.fetcher.fetched)
	require.Empty(t, h.manager.installs)
	require.NoDirExists(t, h.scratch.Root())
}

// TestExecuteLateUnreachableLink aborts before fetching earlier reachable packages.
func TestExecuteLateUnreachableLink(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	b, _ := h.manifest.Bundle(bundle.VariantRecent)
	h.links.unreachable[b.Companion.URL] = true

	_, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrLinkUnreachable)
	require.Empty(t, h.fetcher.fetched)
	require.Len(t, h.links.probed, 4)
}

// TestExecutePartiallyInstalled downloads only missing roles and issues one install per touched batch.
func TestExecutePartiallyInstalled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.checker.installed["gcc12"] = true
	h.checker.installed["cuda"] = true

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)

	libs := h.names(bundle.VariantRecent, bundle.RoleCompilerLibs)
	cudnn := h.names(bundle.VariantRecent, bundle.RoleCompanion)

	require.Equal(t, append(append([]string{}, libs...), cudnn...), h.fetcher.fetched)
	require.Equal(t, [][]string{h.scratchPaths(libs...), h.scratchPaths(cudnn...)}, h.manager.installs)
	require.Equal(t, 1, h.count("Package already installed: gcc12 12.3"))
	require.Equal(t, 1, h.count("Package already installed: cuda 12.3"))
}

// TestExecuteEmptyBatchIsSkipped issues a single install when one batch is fully present.
func TestExecuteEmptyBatchIsSkipped(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.checker.installed["gcc12"] = true
	h.checker.installed["gcc12-libs"] = true

	_, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, [][]string{
		h.scratchPaths(h.names(bundle.VariantRecent, toolkit...)...),
	}, h.manager.installs)
}

// TestExecuteNothingToInstall issues no install when every package is present.
func TestExecuteNothingToInstall(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, id := range []string{"gcc12", "gcc12-libs", "cuda", "cudnn"} {
		h.checker.installed[id] = true
	}

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Empty(t, h.links.probed)
	require.Empty(t, h.fetcher.fetched)
	require.Empty(t, h.manager.installs)
}

// TestExecuteBatchFailureIsIndependent reports a failed toolchain batch and
// still installs the toolkit and finishes the run successfully.
func TestExecuteBatchFailureIsIndependent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.manager.installErrs = []error{errBoom}

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Len(t, h.manager.installs, 2)
	require.Equal(t, 1, h.count("was not installed successfully: boom"))
	require.Equal(t, 1, h.count("installed successfully."))
	require.Contains(t, h.out.String(), "IgnorePkg")
	require.Equal(t, 1, h.count("Installation completed successfully!"))
	require.Zero(t, h.count("Installation exited!"))
	require.NoDirExists(t, h.scratch.Root())
}

// TestExecuteEveryBatchFails still reaches the success path when both batches fail.
func TestExecuteEveryBatchFails(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.manager.installErrs = []error{errBoom, errBoom}

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Len(t, h.manager.installs, 2)
	require.Equal(t, 2, h.count("was not installed successfully"))
	require.Equal(t, 1, h.count("Installation completed successfully!"))
}

// TestExecuteDownloadFailure aborts on the first failed fetch.
func TestExecuteDownloadFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fetcher.err = errBoom

	code, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrDownload)
	require.Equal(t, 1, code)
	require.Len(t, h.fetcher.fetched, 1)
	require.Empty(t, h.manager.installs)
	require.NoDirExists(t, h.scratch.Root())
}

// TestExecuteArtifactMismatch rejects a download that holds another package.
func TestExecuteArtifactMismatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.deps.Inspect = func(string) (*artifact.Info, error) {
		return &artifact.Info{Name: "gcc13", Version: "13.2.1-3"}, nil
	}

	_, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrArtifactMismatch)
	require.ErrorIs(t, err, artifact.ErrMismatch)
	require.Empty(t, h.manager.installs)
}

// TestExecuteUninspectableArtifact only warns when the archive cannot be read.
func TestExecuteUninspectableArtifact(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.deps.Inspect = func(string) (*artifact.Info, error) {
		return nil, artifact.ErrUnsupportedFormat
	}

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, 4, h.count("Could not inspect"))
}

// TestExecuteDependencyUpdateFailure keeps going when the prerequisite update fails.
func TestExecuteDependencyUpdateFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.manager.updateErr = errBoom

	code, err := h.orchestrator().Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Contains(t, h.out.String(), "Failed to install dependencies")
	require.Len(t, h.manager.installs, 2)
}

// TestExecuteBusy refuses to start and leaves an existing scratch directory alone.
func TestExecuteBusy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.deps.Busy = fakeBusy{err: errBoom}
	require.NoError(t, h.scratch.Create())

	code, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrPackageManagerBusy)
	require.Equal(t, 1, code)
	require.Empty(t, h.manager.updates)
	require.DirExists(t, h.scratch.Root())
}

// TestExecuteScratchFailure is fatal before any prompt.
func TestExecuteScratchFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.deps.Scratch = failingScratch{Space: h.scratch}

	code, err := h.orchestrator().Execute(context.Background())
	require.ErrorIs(t, err, ErrScratchSpace)
	require.Equal(t, 1, code)
	require.Empty(t, h.checker.queried)
}

// TestExecutePromptErrors maps input failures to prompt errors and aborted prompts to interrupts.
func TestExecutePromptErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.prompter.selectErr = prompt.ErrNoInput

	ctx := context.Background()

	_, err := h.orchestrator().Execute(ctx)
	require.ErrorIs(t, err, ErrPrompt)

	h = newHarness(t)
	h.prompter.confirmErr = prompt.ErrAborted

	code, err := h.orchestrator().Execute(ctx)
	require.ErrorIs(t, err, ErrInterrupted)
	require.Equal(t, 1, code)
	require.NoDirExists(t, h.scratch.Root())
}

// TestClassify maps run errors to outcomes.
func TestClassify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Equal(t, OutcomeSuccess, Classify(ctx, nil))
	require.Equal(t, OutcomeCancelled, Classify(ctx, ErrCancelled))
	require.Equal(t, OutcomeFailed, Classify(ctx, ErrDownload))
	require.Equal(t, OutcomeInterrupted, Classify(ctx, ErrInterrupted))

	interrupted, cancel := context.WithCancelCause(ctx)
	cancel(ErrInterrupted)
	require.Equal(t, OutcomeInterrupted, Classify(interrupted, ErrLinkUnreachable))
	require.Equal(t, 0, OutcomeSuccess.ExitCode())
	require.Equal(t, 1, OutcomeCancelled.ExitCode())
}
