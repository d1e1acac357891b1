package pacman

import (
	"context"
	"errors"
	"os"

	"github.com/oshokin/cuda-installer/internal/service/command"
)

// errNothingToInstall is returned when Install is called without artifacts.
var errNothingToInstall = errors.New("no artifacts to install")

// Manager issues package manager commands through a command.Runner.
type Manager struct {
	// runner executes the package manager binary.
	runner command.Runner
	// binary is the package manager executable.
	binary string
	// useSudo elevates mutating calls when not root.
	useSudo bool
	// euid is the effective user id used for elevation decisions.
	euid int
}

// Option configures a Manager.
type Option func(*Manager)

// WithSudo toggles sudo elevation for update and install.
func WithSudo(enabled bool) Option {
	return func(m *Manager) {
		m.useSudo = enabled
	}
}

// WithBinary overrides the package manager executable.
func WithBinary(binary string) Option {
	return func(m *Manager) {
		if binary != "" {
			m.binary = binary
		}
	}
}

// NewManager creates a Manager for pacman.
func NewManager(r command.Runner, opts ...Option) *Manager {
	m := &Manager{
		runner:  r,
		binary:  "pacman",
		useSudo: true,
		euid:    os.Geteuid(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Binary returns the package manager executable name.
func (m *Manager) Binary() string {
	return m.binary
}

// Query asks the local package database about identifier.
func (m *Manager) Query(ctx context.Context, identifier string) (string, error) {
	return m.runner.Capture(ctx, m.binary, "-Q", identifier)
}

// Update synchronizes the system and makes sure deps are present.
// The package manager owns the terminal and may prompt the user.
func (m *Manager) Update(ctx context.Context, deps []string) error {
	args := append([]string{"-Syu", "--needed"}, deps...)
	name, argv := command.Elevate(m.euid, m.useSudo, m.binary, args...)

	return m.runner.Interactive(ctx, name, argv...)
}

// Install installs local package files in a single transaction.
func (m *Manager) Install(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errNothingToInstall
	}

	args := append([]string{"-U"}, paths...)
	name, argv := command.Elevate(m.euid, m.useSudo, m.binary, args...)

	return m.runner.Interactive(ctx, name, argv...)
}
