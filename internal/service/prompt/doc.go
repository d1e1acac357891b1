// Package prompt asks the operator to pick a bundle and confirm the install.
//
// On a terminal the questions are rendered with huh forms. Otherwise a plain
// line-based dialog reads answers from the input stream.
package prompt
