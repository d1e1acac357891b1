package pacman

import (
	"context"
	"strings"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
	"github.com/oshokin/cuda-installer/internal/logger"
)

// Querier looks a package up in the local database.
type Querier interface {
	Query(ctx context.Context, identifier string) (string, error)
}

// Checker reports whether a package is installed at the expected version.
type Checker struct {
	querier Querier
}

// NewChecker creates a Checker backed by q.
func NewChecker(q Querier) *Checker {
	return &Checker{querier: q}
}

// IsInstalled is true only when the query succeeds and a result line names
// exactly spec.Identifier with a version matching spec.Version.
// Any query failure counts as not installed.
func (c *Checker) IsInstalled(ctx context.Context, spec bundle.PackageSpec) bool {
	output, err := c.querier.Query(ctx, spec.Identifier)
	if err != nil {
		logger.DebugKV(ctx, "Package query failed, treating as not installed",
			"package", spec.Identifier, "error", err)

		return false
	}

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != spec.Identifier {
			continue
		}

		if spec.Version.Matches(fields[1]) {
			return true
		}

		logger.DebugKV(ctx, "Installed version differs",
			"package", spec.Identifier, "installed", fields[1], "expected", spec.Version.String())
	}

	return false
}
