package installer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
	"github.com/oshokin/cuda-installer/internal/repository/manifest"
	"github.com/oshokin/cuda-installer/internal/service/console"
	"github.com/oshokin/cuda-installer/internal/service/scratch"
)

var errBoom = errors.New("boom")

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// fakeManager records package manager calls.
// When set, updateBlock runs in place of the prerequisite update.
type fakeManager struct {
	mu          sync.Mutex
	updates     [][]string
	installs    [][]string
	updateErr   error
	installErrs []error
	updateBlock func(ctx context.Context) error
}

func (m *fakeManager) Update(ctx context.Context, deps []string) error {
	m.mu.Lock()
	m.updates = append(m.updates, deps)
	m.mu.Unlock()

	if m.updateBlock != nil {
		return m.updateBlock(ctx)
	}

	return m.updateErr
}

func (m *fakeManager) Install(_ context.Context, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.installs)
	m.installs = append(m.installs, paths)

	if i < len(m.installErrs) {
		return m.installErrs[i]
	}

	return nil
}

// fakeChecker reports the listed identifiers as installed.
type fakeChecker struct {
	installed map[string]bool
	queried   []string
}

func (c *fakeChecker) IsInstalled(_ context.Context, spec bundle.PackageSpec) bool {
	c.queried = append(c.queried, spec.Identifier)

	return c.installed[spec.Identifier]
}

// fakeLinks reports the listed URLs as unreachable.
type fakeLinks struct {
	unreachable map[string]bool
	probed      []string
}

func (l *fakeLinks) IsReachable(_ context.Context, url string) bool {
	l.probed = append(l.probed, url)

	return !l.unreachable[url]
}

// fakeFetcher writes a small file per download, or runs block instead.
type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	err     error
	block   func(ctx context.Context) error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, dest string) (int64, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, filepath.Base(dest))
	f.mu.Unlock()

	if f.block != nil {
		if err := f.block(ctx); err != nil {
			return 0, err
		}
	}

	if f.err != nil {
		return 0, f.err
	}

	if err := os.WriteFile(dest, []byte(url), 0o600); err != nil {
		return 0, err
	}

	return int64(len(url)), nil
}

// fakePrompter answers with fixed values.
type fakePrompter struct {
	choice     int
	proceed    bool
	selectErr  error
	confirmErr error
}

func (p *fakePrompter) Select(context.Context, string, []string) (int, error) {
	return p.choice, p.selectErr
}

func (p *fakePrompter) Confirm(context.Context, string) (bool, error) {
	return p.proceed, p.confirmErr
}

// fakeBusy returns err from Check.
type fakeBusy struct {
	err error
}

func (b fakeBusy) Check() error {
	return b.err
}

// harness bundles an orchestrator with its fakes.
type harness struct {
	manager  *fakeManager
	checker  *fakeChecker
	links    *fakeLinks
	fetcher  *fakeFetcher
	prompter *fakePrompter
	scratch  *scratch.Space
	out      *syncBuffer
	manifest *bundle.Manifest
	deps     Dependencies
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	m, err := manifest.NewRepository("").Load()
	require.NoError(t, err)

	space, err := scratch.New(filepath.Join(t.TempDir(), "cuda_installer"))
	require.NoError(t, err)

	h := &harness{
		manager:  new(fakeManager),
		checker:  &fakeChecker{installed: map[string]bool{}},
		links:    &fakeLinks{unreachable: map[string]bool{}},
		fetcher:  new(fakeFetcher),
		prompter: &fakePrompter{choice: 0, proceed: true},
		scratch:  space,
		out:      new(syncBuffer),
		manifest: m,
	}

	out := console.New(h.out, false)
	h.deps = Dependencies{
		Manager:   h.manager,
		Checker:   h.checker,
		Links:     h.links,
		Fetcher:   h.fetcher,
		Scratch:   h.scratch,
		Prompter:  h.prompter,
		Console:   out,
		Finalizer: NewFinalizer(out),
	}

	return h
}

func (h *harness) orchestrator() *Orchestrator {
	return NewOrchestrator(h.manifest, h.deps, "/etc/pacman.conf")
}

// scratchPaths maps artifact names to their scratch paths.
func (h *harness) scratchPaths(names ...string) []string {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, h.scratch.Path(name))
	}

	return paths
}

func (h *harness) names(v bundle.Variant, roles ...bundle.Role) []string {
	b, _ := h.manifest.Bundle(v)

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, b.Package(r).Name)
	}

	return names
}

func (h *harness) count(s string) int {
	return strings.Count(h.out.String(), s)
}

// failingScratch cannot create its directory.
type failingScratch struct {
	*scratch.Space
}

func (failingScratch) Create() error {
	return errBoom
}

// slowScratch takes a while to create its directory.
type slowScratch struct {
	*scratch.Space
	created atomic.Int32
}

func (s *slowScratch) Create() error {
	time.Sleep(2 * time.Millisecond)
	s.created.Add(1)

	return s.Space.Create()
}
