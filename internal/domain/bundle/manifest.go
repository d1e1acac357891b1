package bundle

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Variant names one of the two bundles of a manifest.
type Variant string

const (
	// VariantRecent is the newest supported toolkit bundle.
	VariantRecent Variant = "recent"
	// VariantCompatible is the bundle matching the widest range of ML frameworks.
	VariantCompatible Variant = "compatible"
)

// Variants returns both variants in presentation order.
func Variants() [2]Variant {
	return [2]Variant{VariantRecent, VariantCompatible}
}

// Title returns the capitalized variant name used in prompts.
func (v Variant) Title() string {
	if v == "" {
		return ""
	}

	return strings.ToUpper(string(v[:1])) + string(v[1:])
}

var (
	// ErrUnknownVariant is returned when a bundle variant is neither recent nor compatible.
	ErrUnknownVariant = errors.New("unknown bundle variant")
	// errEmptyField is returned when a required manifest field is blank.
	errEmptyField = errors.New("field must not be empty")
	// errBadURL is returned when a package link is not an absolute http(s) URL.
	errBadURL = errors.New("link must be an absolute http(s) URL")
	// errBadName is returned when a package file name would escape the scratch directory.
	errBadName = errors.New("name must be a plain file name")
)

// PackageSpec describes a single package of a bundle.
type PackageSpec struct {
	// Identifier is the package name used in package database queries.
	Identifier string `yaml:"pkg"`
	// Version is the expected installed version.
	Version Version `yaml:"version"`
	// Name is the artifact file name inside the scratch directory.
	Name string `yaml:"name"`
	// URL is where the artifact is downloaded from.
	URL string `yaml:"link"`
}

// Validate checks that every field is set and safe to use.
func (p *PackageSpec) Validate() error {
	switch {
	case strings.TrimSpace(p.Identifier) == "":
		return fmt.Errorf("pkg: %w", errEmptyField)
	case p.Version.IsZero():
		return fmt.Errorf("version: %w", errEmptyField)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("name: %w", errEmptyField)
	case strings.TrimSpace(p.URL) == "":
		return fmt.Errorf("link: %w", errEmptyField)
	}

	if p.Name != path.Base(p.Name) || p.Name == "." || p.Name == ".." || strings.ContainsRune(p.Name, '\\') {
		return fmt.Errorf("name %q: %w", p.Name, errBadName)
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("link %q: %w", p.URL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("link %q: %w", p.URL, errBadURL)
	}

	return nil
}

// Bundle is a fixed set of four role-bound packages plus the list of
// configurations it is known to support.
type Bundle struct {
	// Support lists human-readable supported configurations.
	Support []string `yaml:"support"`
	// Compiler is the host compiler package.
	Compiler PackageSpec `yaml:"compiler"`
	// CompilerLibs is the compiler support library package.
	CompilerLibs PackageSpec `yaml:"compiler_libs"`
	// Primary is the primary product package.
	Primary PackageSpec `yaml:"primary"`
	// Companion is the companion product package.
	Companion PackageSpec `yaml:"companion"`
}

// Package returns the package bound to role r.
func (b *Bundle) Package(r Role) PackageSpec {
	switch r {
	case RoleCompiler:
		return b.Compiler
	case RoleCompilerLibs:
		return b.CompilerLibs
	case RolePrimary:
		return b.Primary
	case RoleCompanion:
		return b.Companion
	default:
		return PackageSpec{}
	}
}

// Identifiers returns the package identifiers in priority order.
func (b *Bundle) Identifiers() []string {
	ids := make([]string, 0, roleCount)
	for _, r := range Roles() {
		ids = append(ids, b.Package(r).Identifier)
	}

	return ids
}

// Validate checks all four packages.
func (b *Bundle) Validate() error {
	for _, r := range Roles() {
		p := b.Package(r)
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: %w", r, err)
		}
	}

	return nil
}

// Manifest is the dependency data loaded once per run.
type Manifest struct {
	// Deps are the prerequisite packages refreshed before anything else.
	Deps string `yaml:"deps"`
	// Recent is the newest bundle.
	Recent Bundle `yaml:"recent"`
	// Compatible is the conservative bundle.
	Compatible Bundle `yaml:"compatible"`
}

// Bundle returns the bundle for variant v.
func (m *Manifest) Bundle(v Variant) (*Bundle, error) {
	switch v {
	case VariantRecent:
		return &m.Recent, nil
	case VariantCompatible:
		return &m.Compatible, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
}

// DepList splits Deps into package names.
func (m *Manifest) DepList() []string {
	return strings.Fields(m.Deps)
}

// Validate checks both bundles.
func (m *Manifest) Validate() error {
	for _, v := range Variants() {
		b, _ := m.Bundle(v)
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s bundle: %w", v, err)
		}
	}

	return nil
}
