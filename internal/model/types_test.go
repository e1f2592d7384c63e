package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRepoDescriptor_FullName verifies the canonical "owner/name" rendering
// used in API paths and error messages.
func TestRepoDescriptor_FullName(t *testing.T) {
	d := RepoDescriptor{Owner: "acme", Name: "templates"}
	assert.Equal(t, "acme/templates", d.FullName())
	assert.Equal(t, "acme/templates", d.String())
}

// TestParseMergeDecision_Valid verifies that all three decisions parse,
// case-insensitively, to their canonical values.
func TestParseMergeDecision_Valid(t *testing.T) {
	cases := map[string]MergeDecision{
		"overwrite": DecisionOverwrite,
		"skip":      DecisionSkip,
		"concat":    DecisionConcat,
		"Overwrite": DecisionOverwrite,
		"SKIP":      DecisionSkip,
	}

	for input, want := range cases {
		got, err := ParseMergeDecision(input)
		require.NoError(t, err, "input %q should parse", input)
		assert.Equal(t, want, got)
	}
}

// TestParseMergeDecision_Invalid verifies that unknown decision strings
// are rejected with a descriptive error.
func TestParseMergeDecision_Invalid(t *testing.T) {
	for _, input := range []string{"", "append", "replace", "ask"} {
		_, err := ParseMergeDecision(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

// TestCLIError_Unwrap verifies that CLIError participates in Go's error
// wrapping chain so callers can reach the underlying cause.
func TestCLIError_Unwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	err := WrapCLIError(ExitReleaseLookupFailed, "release lookup failed for acme/templates", underlying)

	assert.ErrorIs(t, err, underlying)

	var cliErr *CLIError
	require.ErrorAs(t, error(err), &cliErr)
	assert.Equal(t, ExitReleaseLookupFailed, cliErr.Code)
	assert.Contains(t, cliErr.Error(), "acme/templates")
	assert.Contains(t, cliErr.Error(), "connection refused")
}

// TestCLIError_WithoutUnderlying verifies the message-only form.
func TestCLIError_WithoutUnderlying(t *testing.T) {
	err := NewCLIError(ExitDestinationMissing, "destination does not exist: /tmp/nope")
	assert.Equal(t, "destination does not exist: /tmp/nope", err.Error())
	assert.Nil(t, err.Unwrap())
}
