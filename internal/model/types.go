// Package model defines the domain types for the quilt CLI.
//
// All entities in this package represent the data flowing through the
// fetch → expand → merge pipeline. These types are pure data structures
// with no external dependencies, used throughout the application for
// passing data between pipeline stages.
//
// Key design decision: the pipeline stages are index-aligned: descriptor i
// produces asset i produces tree i. To keep failures diagnosable after the
// descriptor list has been left behind, DownloadedAsset and ExpandedTree
// carry their originating RepoDescriptor alongside the filesystem path.
package model

import (
	"fmt"
	"strings"
)

// RepoDescriptor is the structured identity of a source repository,
// produced by the resolver from a raw "[owner/]name" identifier.
//
// Both fields are non-empty by construction and the value is never
// mutated after creation.
type RepoDescriptor struct {
	// Owner is the account or organization that owns the repository.
	Owner string `json:"owner"`

	// Name is the repository name.
	Name string `json:"name"`
}

// FullName returns the canonical "owner/name" form of the descriptor.
// This is the form used in API request paths and in error messages.
func (d RepoDescriptor) FullName() string {
	return d.Owner + "/" + d.Name
}

// String satisfies fmt.Stringer so descriptors render naturally in
// log output and error messages.
func (d RepoDescriptor) String() string {
	return d.FullName()
}

// DownloadedAsset is a release archive that has been downloaded into the
// run workspace. The file is owned by the workspace and removed with it.
type DownloadedAsset struct {
	// Repo is the descriptor the asset was fetched for.
	Repo RepoDescriptor

	// Path is the absolute path to the downloaded archive file.
	Path string
}

// ExpandedTree is the extracted contents of one downloaded archive.
// The directory is owned by the workspace; the merger only reads from it.
type ExpandedTree struct {
	// Repo is the descriptor the tree originates from.
	Repo RepoDescriptor

	// Path is the absolute path to the extraction directory.
	Path string
}

// MergeDecision is the outcome of resolving a single file-name collision
// during a merge. It is scoped to one colliding child and never persisted.
type MergeDecision string

const (
	// DecisionOverwrite replaces the existing destination entry with the
	// source entry, recursively for directories.
	DecisionOverwrite MergeDecision = "overwrite"

	// DecisionSkip leaves the destination entry untouched.
	DecisionSkip MergeDecision = "skip"

	// DecisionConcat appends the source file's content to the existing
	// destination file. Only valid for regular text files; applying it
	// to a directory or a binary file is rejected by the merger.
	DecisionConcat MergeDecision = "concat"
)

// String returns the string representation of the MergeDecision.
func (d MergeDecision) String() string {
	return string(d)
}

// IsValid checks whether the MergeDecision is one of the predefined
// valid decisions.
func (d MergeDecision) IsValid() bool {
	switch d {
	case DecisionOverwrite, DecisionSkip, DecisionConcat:
		return true
	default:
		return false
	}
}

// ParseMergeDecision converts a string to a MergeDecision.
// Returns an error if the string does not match any valid decision.
func ParseMergeDecision(s string) (MergeDecision, error) {
	decision := MergeDecision(strings.ToLower(s))
	if !decision.IsValid() {
		return "", fmt.Errorf("invalid merge decision: %q (valid: overwrite, skip, concat)", s)
	}
	return decision, nil
}

// ExitCode defines the CLI exit codes. Each failure kind in the pipeline
// maps to its own code so scripts and CI systems can programmatically
// determine which stage a run failed in.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitMissingOwner indicates a repository identifier had no owner
	// segment and no default owner was configured.
	ExitMissingOwner ExitCode = 2

	// ExitReleaseLookupFailed indicates the latest-release metadata
	// query failed (network error, non-2xx status, rate limiting).
	ExitReleaseLookupFailed ExitCode = 3

	// ExitAssetLookupFailed indicates the asset listing query failed or
	// the release had no downloadable assets.
	ExitAssetLookupFailed ExitCode = 4

	// ExitDownloadFailed indicates the asset download itself failed.
	ExitDownloadFailed ExitCode = 5

	// ExitExtractionFailed indicates a downloaded archive was corrupt,
	// not a ZIP, or contained entries that cannot be safely extracted.
	ExitExtractionFailed ExitCode = 6

	// ExitDestinationMissing indicates the merge destination directory
	// does not exist. The merger never creates it implicitly.
	ExitDestinationMissing ExitCode = 7

	// ExitUnsupportedConcatenation indicates a concat decision was made
	// for a directory or a binary file.
	ExitUnsupportedConcatenation ExitCode = 8

	// ExitTimeout indicates a remote lookup or download exceeded the
	// configured request timeout.
	ExitTimeout ExitCode = 9

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 10
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate pipeline failures into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description. It names the
	// failing repository or file so a failed batch is diagnosable.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
