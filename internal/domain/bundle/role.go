package bundle

import "strings"

// Role is the fixed slot a package occupies inside a bundle.
type Role uint8

const (
	// RoleCompiler is the host compiler required by the toolkit.
	RoleCompiler Role = iota
	// RoleCompilerLibs is the compiler runtime support library.
	RoleCompilerLibs
	// RolePrimary is the primary product (the GPU toolkit).
	RolePrimary
	// RoleCompanion is the companion product built against the primary one.
	RoleCompanion

	roleCount = 4
)

// Roles returns every role in install priority order.
func Roles() [roleCount]Role {
	return [roleCount]Role{RoleCompiler, RoleCompilerLibs, RolePrimary, RoleCompanion}
}

// String returns the human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleCompiler:
		return "compiler"
	case RoleCompilerLibs:
		return "compiler-support-library"
	case RolePrimary:
		return "primary-product"
	case RoleCompanion:
		return "companion-product"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the four fixed roles.
func (r Role) Valid() bool {
	return r < roleCount
}

// RoleSet is a set of roles. The zero value is empty.
type RoleSet uint8

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.Add(r)
	}

	return s
}

// Add returns a set that also contains r. Invalid roles are ignored.
func (s RoleSet) Add(r Role) RoleSet {
	if !r.Valid() {
		return s
	}

	return s | 1<<r
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int {
	n := 0

	for _, r := range Roles() {
		if s.Has(r) {
			n++
		}
	}

	return n
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return s.Len() == 0
}

// Intersect returns the roles present in both sets.
func (s RoleSet) Intersect(other RoleSet) RoleSet {
	return s & other
}

// Roles lists the members in install priority order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, roleCount)

	for _, r := range Roles() {
		if s.Has(r) {
			out = append(out, r)
		}
	}

	return out
}

// String renders the set as a comma-separated list of role names.
func (s RoleSet) String() string {
	names := make([]string, 0, roleCount)
	for _, r := range s.Roles() {
		names = append(names, r.String())
	}

	return "{" + strings.Join(names, ", ") + "}"
}

// Batch is a fixed pair of roles installed in a single package manager transaction.
type Batch struct {
	// Name labels the batch in status messages.
	Name string
	// Roles are the batch members in priority order.
	Roles RoleSet
}

// Batches returns the two install batches in order:
// the compiler with its support library, then the product with its companion.
func Batches() [2]Batch {
	return [2]Batch{
		{Name: "toolchain", Roles: NewRoleSet(RoleCompiler, RoleCompilerLibs)},
		{Name: "toolkit", Roles: NewRoleSet(RolePrimary, RoleCompanion)},
	}
}

// Members returns the batch roles that were downloaded.
func (b Batch) Members(downloaded RoleSet) []Role {
	return b.Roles.Intersect(downloaded).Roles()
}
