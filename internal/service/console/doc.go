// Package console prints user-facing status lines.
//
// Diagnostics go through the logger; everything the operator is expected to
// read while installing (progress notes, warnings, the final message and the
// post-install guidance) goes through a Console.
package console
