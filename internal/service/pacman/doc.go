// Package pacman talks to the host package manager.
//
// Manager wraps the query, update and install invocations, Checker decides
// whether a package is already present at the expected version, and
// BusyGuard refuses to start while another package manager transaction or
// installer run is in progress.
package pacman
