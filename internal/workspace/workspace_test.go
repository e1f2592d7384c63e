package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewAt_CreatesUniqueRoots verifies that two workspaces under the same
// parent never share a root directory.
func TestNewAt_CreatesUniqueRoots(t *testing.T) {
	parent := t.TempDir()

	first, err := NewAt(parent, false)
	require.NoError(t, err)
	second, err := NewAt(parent, false)
	require.NoError(t, err)

	assert.NotEqual(t, first.Root(), second.Root())
	assert.DirExists(t, first.Root())
	assert.DirExists(t, second.Root())
	assert.True(t, strings.HasPrefix(filepath.Base(first.Root()), "quilt-"))
}

// TestTempFile_LivesInsideRoot verifies temp files are scoped to the
// workspace and honor the naming pattern.
func TestTempFile_LivesInsideRoot(t *testing.T) {
	ws, err := NewAt(t.TempDir(), false)
	require.NoError(t, err)

	f, err := ws.TempFile("acme-templates-*.zip")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, ws.Root(), filepath.Dir(f.Name()))
	assert.True(t, strings.HasSuffix(f.Name(), ".zip"))
}

// TestTempDir_Unique verifies that sibling temp directories inside one
// workspace get distinct names.
func TestTempDir_Unique(t *testing.T) {
	ws, err := NewAt(t.TempDir(), false)
	require.NoError(t, err)

	a, err := ws.TempDir("tree-")
	require.NoError(t, err)
	b, err := ws.TempDir("tree-")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, ws.Root(), filepath.Dir(a))
}

// TestCleanup_RemovesEverything verifies that Cleanup removes the root
// and all files created inside it.
func TestCleanup_RemovesEverything(t *testing.T) {
	ws, err := NewAt(t.TempDir(), false)
	require.NoError(t, err)

	f, err := ws.TempFile("asset-*.zip")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, ws.Cleanup())

	_, statErr := os.Stat(ws.Root())
	assert.True(t, os.IsNotExist(statErr), "workspace root should be gone after Cleanup")
}

// TestCleanup_KeepRetainsRoot verifies that the keep flag turns Cleanup
// into a no-op so failed runs can be inspected.
func TestCleanup_KeepRetainsRoot(t *testing.T) {
	ws, err := NewAt(t.TempDir(), true)
	require.NoError(t, err)
	assert.True(t, ws.Kept())

	require.NoError(t, ws.Cleanup())
	assert.DirExists(t, ws.Root())
}
