// Package model defines the domain types and value objects for the
// quilt CLI.
//
// This package contains pure data structures with no external dependencies.
// The pipeline entities (RepoDescriptor, DownloadedAsset, ExpandedTree) are
// transient: descriptors are derived from user input at startup and the
// asset/tree paths point into a per-run temp workspace that is removed when
// the run ends.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
