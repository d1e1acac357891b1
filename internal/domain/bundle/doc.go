// Package bundle contains the core domain types of the installer.
//
// A Manifest carries two Bundle variants. Each Bundle holds exactly four
// PackageSpec values bound to fixed Roles whose order is the install priority.
// RoleSet and Batch describe which roles were downloaded in a run and how
// they are grouped into package manager transactions.
package bundle
