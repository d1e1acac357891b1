// Package artifact inspects downloaded pacman package archives.
//
// It reads the embedded .PKGINFO metadata from zstd, xz, gzip or plain tar
// archives and computes a BLAKE3 digest of the file, so a download that does
// not carry the expected package is caught before installation.
package artifact
