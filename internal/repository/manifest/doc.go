// Package manifest loads the dependency manifest.
//
// The default manifest is embedded into the binary; a file path may be given
// to override it. Loading is strict: unknown keys, non-numeric versions and
// incomplete bundles are rejected before anything touches the system.
package manifest
