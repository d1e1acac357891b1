package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// errInvalidRoot is returned for roots that must never be created or removed.
var errInvalidRoot = errors.New("invalid scratch directory")

// defaultDirMode is applied when the directory is created.
const defaultDirMode os.FileMode = 0o755

// Space is a fixed scratch directory.
type Space struct {
	root string
}

// New returns a Space rooted at root, which must be an absolute path other than "/".
func New(root string) (*Space, error) {
	cleaned := filepath.Clean(root)
	if root == "" || !filepath.IsAbs(cleaned) || cleaned == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: %q", errInvalidRoot, root)
	}

	return &Space{root: cleaned}, nil
}

// Root returns the directory path.
func (s *Space) Root() string {
	return s.root
}

// Create makes the directory, succeeding if it already exists.
func (s *Space) Create() error {
	if err := os.MkdirAll(s.root, defaultDirMode); err != nil {
		return fmt.Errorf("create %s: %w", s.root, err)
	}

	return nil
}

// Path returns the location of name inside the directory.
// Only the base element of name is used.
func (s *Space) Path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Remove deletes the directory recursively. A missing directory is not an error.
func (s *Space) Remove() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("remove %s: %w", s.root, err)
	}

	return nil
}
