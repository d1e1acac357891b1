// Package link probes remote artifact URLs before anything is downloaded.
package link
