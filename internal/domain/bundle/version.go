package bundle

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// errVersionNotNumeric is returned when a manifest version is not a YAML number.
var errVersionNotNumeric = errors.New("version must be numeric")

// Version is a numeric package version that keeps its literal manifest text,
// so 12.10 is never collapsed to 12.1.
type Version struct {
	raw string
}

// ParseVersion builds a Version from its textual form.
func ParseVersion(s string) (Version, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, err)
	}

	if len(node.Content) != 1 {
		return Version{}, fmt.Errorf("%w: %q", errVersionNotNumeric, s)
	}

	var v Version
	if err := v.UnmarshalYAML(node.Content[0]); err != nil {
		return Version{}, err
	}

	return v, nil
}

// MustVersion is ParseVersion for literals known to be valid.
func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}

	return v
}

// UnmarshalYAML accepts integer and float scalars only.
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %w", node.Line, errVersionNotNumeric)
	}

	switch node.ShortTag() {
	case "!!int", "!!float":
	default:
		return fmt.Errorf("line %d: %w, got %q", node.Line, errVersionNotNumeric, node.Value)
	}

	raw := strings.TrimSpace(node.Value)
	if !isPlainDecimal(raw) {
		return fmt.Errorf("line %d: %w, got %q", node.Line, errVersionNotNumeric, node.Value)
	}

	v.raw = raw

	return nil
}

// String returns the literal version text.
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	return v.raw == ""
}

// Matches reports whether an installed version string (as printed by pacman,
// e.g. "1:12.3.2-1") satisfies v. The epoch is ignored, and the installed
// version must equal v or extend it at a component boundary.
func (v Version) Matches(installed string) bool {
	if v.raw == "" {
		return false
	}

	installed = strings.TrimSpace(installed)
	if i := strings.IndexByte(installed, ':'); i >= 0 {
		installed = installed[i+1:]
	}

	if installed == v.raw {
		return true
	}

	if !strings.HasPrefix(installed, v.raw) {
		return false
	}

	switch installed[len(v.raw)] {
	case '.', '-', '+':
		return true
	default:
		return false
	}
}

// isPlainDecimal accepts dotted digit groups such as "12", "12.3" or "8.9.7".
func isPlainDecimal(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' || strings.Contains(s, "..") {
		return false
	}

	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}

	return true
}
