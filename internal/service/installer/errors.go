package installer

import (
	"context"
	"errors"
)

var (
	// ErrConfig is returned when settings or the manifest cannot be loaded.
	ErrConfig = errors.New("configuration error")
	// ErrPrompt is returned when an answer cannot be read.
	ErrPrompt = errors.New("prompt failed")
	// ErrDependencyUpdate is reported when the prerequisite update fails. It never aborts a run.
	ErrDependencyUpdate = errors.New("dependency update failed")
	// ErrScratchSpace is returned when the scratch directory cannot be created.
	ErrScratchSpace = errors.New("scratch space unavailable")
	// ErrLinkUnreachable is returned when a package link does not answer with 200 OK.
	ErrLinkUnreachable = errors.New("invalid link")
	// ErrDownload is returned when an artifact cannot be fetched.
	ErrDownload = errors.New("download failed")
	// ErrArtifactMismatch is returned when a downloaded archive holds a different package.
	ErrArtifactMismatch = errors.New("artifact mismatch")
	// ErrInstall marks a failed install batch in the diagnostic log.
	ErrInstall = errors.New("install failed")
	// ErrCancelled is returned when the operator declines to proceed.
	ErrCancelled = errors.New("operation was canceled by the user")
	// ErrInterrupted is the cancellation cause used when the run is interrupted.
	ErrInterrupted = errors.New("installation was interrupted")
	// ErrPackageManagerBusy is returned when a conflicting process is running.
	ErrPackageManagerBusy = errors.New("package manager is busy")
)

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeSuccess means every step completed.
	OutcomeSuccess Outcome = iota
	// OutcomeCancelled means the operator declined to proceed.
	OutcomeCancelled
	// OutcomeFailed means a fatal error stopped the run.
	OutcomeFailed
	// OutcomeInterrupted means a signal or an aborted prompt stopped the run.
	OutcomeInterrupted
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// ExitCode returns the process status for the outcome.
func (o Outcome) ExitCode() int {
	if o == OutcomeSuccess {
		return 0
	}

	return 1
}

// Classify maps the error returned by a run to its outcome.
// An interruption recorded as the context cause wins over whatever error
// the aborted step produced.
func Classify(ctx context.Context, err error) Outcome {
	switch {
	case errors.Is(context.Cause(ctx), ErrInterrupted), errors.Is(err, ErrInterrupted):
		return OutcomeInterrupted
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}
