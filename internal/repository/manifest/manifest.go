package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
)

//go:embed packages.yaml
var embedded []byte

// ErrInvalid is returned for any manifest that cannot be read or fails validation.
var ErrInvalid = errors.New("invalid dependency manifest")

// Repository loads the manifest from a file or from the embedded default.
type Repository struct {
	// path is the optional override file.
	path string
}

// NewRepository creates a repository. An empty path selects the embedded manifest.
func NewRepository(path string) *Repository {
	if path != "" {
		path = filepath.Clean(path)
	}

	return &Repository{path: path}
}

// Source describes where the manifest comes from.
func (r *Repository) Source() string {
	if r.path == "" {
		return "embedded"
	}

	return r.path
}

// Load reads, decodes and validates the manifest.
func (r *Repository) Load() (*bundle.Manifest, error) {
	contents := embedded

	if r.path != "" {
		data, err := os.ReadFile(r.path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalid, r.path, err)
		}

		contents = data
	}

	return Decode(bytes.NewReader(contents))
}

// Decode parses a manifest strictly from r.
func Decode(r io.Reader) (*bundle.Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m bundle.Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}

		return nil, fmt.Errorf("%w: decode: %w", ErrInvalid, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return &m, nil
}
