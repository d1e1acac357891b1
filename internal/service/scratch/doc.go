// Package scratch manages the single temporary directory used for downloads.
package scratch
