package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/quilt/internal/model"
)

// TestResolve_ExplicitOwner verifies that identifiers carrying both parts
// resolve to exactly those parts, independent of any default owner.
func TestResolve_ExplicitOwner(t *testing.T) {
	descriptors, err := Resolve([]string{"acme/templates"}, "someone-else")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	assert.Equal(t, model.RepoDescriptor{Owner: "acme", Name: "templates"}, descriptors[0])
}

// TestResolve_DefaultOwner verifies that a bare name picks up the default
// owner, in both the "name" and "/name" spellings.
func TestResolve_DefaultOwner(t *testing.T) {
	descriptors, err := Resolve([]string{"templates", "/tools"}, "acme")
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, model.RepoDescriptor{Owner: "acme", Name: "templates"}, descriptors[0])
	assert.Equal(t, model.RepoDescriptor{Owner: "acme", Name: "tools"}, descriptors[1])
}

// TestResolve_MissingOwner verifies that a bare name without a default
// owner fails with the MissingOwner exit code and names the identifier.
func TestResolve_MissingOwner(t *testing.T) {
	_, err := Resolve([]string{"templates"}, "")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitMissingOwner, cliErr.Code)
	assert.Contains(t, cliErr.Message, "templates")
}

// TestResolve_EmptyOwnerSegment verifies that "/name" without a default
// owner is also a MissingOwner failure, not a descriptor with empty owner.
func TestResolve_EmptyOwnerSegment(t *testing.T) {
	_, err := Resolve([]string{"/templates"}, "")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitMissingOwner, cliErr.Code)
}

// TestResolve_EmptyName verifies that an empty name segment is rejected.
// "acme/" has a separator but nothing after it.
func TestResolve_EmptyName(t *testing.T) {
	_, err := Resolve([]string{"acme/"}, "acme")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}

// TestResolve_SplitsAtFirstSeparator verifies that only the first separator
// splits owner from name; the rest stays in the name segment.
func TestResolve_SplitsAtFirstSeparator(t *testing.T) {
	descriptors, err := Resolve([]string{"acme/tools/extra"}, "")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	assert.Equal(t, "acme", descriptors[0].Owner)
	assert.Equal(t, "tools/extra", descriptors[0].Name)
}

// TestResolve_PreservesOrder verifies that descriptors come back in input
// order; the rest of the pipeline depends on index alignment.
func TestResolve_PreservesOrder(t *testing.T) {
	identifiers := []string{"zeta", "acme/alpha", "mid"}
	descriptors, err := Resolve(identifiers, "fallback")
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	assert.Equal(t, "fallback/zeta", descriptors[0].FullName())
	assert.Equal(t, "acme/alpha", descriptors[1].FullName())
	assert.Equal(t, "fallback/mid", descriptors[2].FullName())
}

// TestResolve_FailFast verifies that the first bad identifier aborts the
// whole batch rather than returning partial results.
func TestResolve_FailFast(t *testing.T) {
	descriptors, err := Resolve([]string{"acme/ok", "bad-no-owner", "acme/never-reached"}, "")
	assert.Error(t, err)
	assert.Nil(t, descriptors, "no partial results on failure")
}

// TestResolve_Empty verifies that an empty input yields an empty, non-nil
// descriptor list.
func TestResolve_Empty(t *testing.T) {
	descriptors, err := Resolve(nil, "acme")
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}
