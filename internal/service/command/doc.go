// Package command runs external programs for the installer.
//
// A Runner either captures a program's output or hands it the controlling
// terminal so the program can prompt the user itself. Calls are synchronous
// and are never killed once started.
package command
