// Package installer sequences a CUDA toolkit installation.
//
// A run refreshes host prerequisites, creates the scratch directory, asks
// which bundle to install and whether to proceed, downloads every package
// that is not installed yet in fixed role order, and installs the downloads
// in at most two package manager transactions. Every terminal path (success,
// decline, failure and interruption) ends in the same Finalizer, which removes
// the scratch directory at most once and reports the final status.
package installer
