package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/quilt/internal/config"
	"github.com/mmr-tortoise/quilt/internal/merge"
	"github.com/mmr-tortoise/quilt/internal/model"
)

// TestCollectIdentifiers_ManifestFirst verifies that manifest entries
// come before positional arguments in the combined list.
func TestCollectIdentifiers_ManifestFirst(t *testing.T) {
	manifest := &config.Manifest{Repos: []string{"acme/base", "acme/ci"}}

	identifiers, err := collectIdentifiers([]string{"extra/tools"}, manifest)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/base", "acme/ci", "extra/tools"}, identifiers)
}

// TestCollectIdentifiers_Empty verifies that no input at all is rejected.
func TestCollectIdentifiers_Empty(t *testing.T) {
	_, err := collectIdentifiers(nil, nil)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}

// TestCollectIdentifiers_TooMany verifies the 20-repository bound on the
// combined manifest + args list.
func TestCollectIdentifiers_TooMany(t *testing.T) {
	var repos []string
	for i := 0; i < 21; i++ {
		repos = append(repos, "acme/repo")
	}

	_, err := collectIdentifiers(nil, &config.Manifest{Repos: repos})
	assert.Error(t, err)

	// Exactly 20 is still fine.
	identifiers, err := collectIdentifiers(nil, &config.Manifest{Repos: repos[:20]})
	require.NoError(t, err)
	assert.Len(t, identifiers, 20)
}

// TestConflictResolver_Policies verifies the mapping from policy strings
// to resolvers: fixed policies apply their decision to every collision.
func TestConflictResolver_Policies(t *testing.T) {
	for policy, want := range map[string]model.MergeDecision{
		"overwrite": model.DecisionOverwrite,
		"skip":      model.DecisionSkip,
		"concat":    model.DecisionConcat,
	} {
		r, err := conflictResolver(policy)
		require.NoError(t, err, "policy %q", policy)

		decision, err := r.Resolve(merge.Conflict{Name: "a.txt"})
		require.NoError(t, err)
		assert.Equal(t, want, decision, "policy %q", policy)
	}
}

// TestConflictResolver_Invalid verifies that unknown policies are
// rejected up front instead of failing mid-merge.
func TestConflictResolver_Invalid(t *testing.T) {
	_, err := conflictResolver("maybe")
	assert.Error(t, err)
}

// TestPickString verifies first-non-empty selection, the precedence
// helper used throughout apply.
func TestPickString(t *testing.T) {
	assert.Equal(t, "flag", pickString("flag", "manifest", "config"))
	assert.Equal(t, "manifest", pickString("", "manifest", "config"))
	assert.Equal(t, "config", pickString("", "", "config"))
	assert.Equal(t, "", pickString("", "", ""))
}
