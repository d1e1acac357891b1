// Package integration runs the installer end to end against local HTTP
// servers and a scripted package manager.
package integration
