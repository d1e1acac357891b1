// Package fetch downloads artifacts over HTTP into local files.
//
// Transfers honor the caller context, so cancelling it aborts an in-flight
// download. Partially written files are removed on failure.
package fetch
