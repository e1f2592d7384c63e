// Package workspace manages the per-run temporary directory tree.
//
// Every quilt run owns exactly one workspace: a uniquely named directory
// under the system temp root that holds all downloaded archives and all
// extraction directories for that run. Scoping every temporary resource
// to the workspace means a single Cleanup call releases everything on
// every exit path, success or failure.
//
// Uniqueness across concurrent runs of the tool is guaranteed by naming
// the root with a fresh UUID. A short retry loop guards the (practically
// impossible) case of a name collision on disk.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mmr-tortoise/quilt/internal/model"
)

// createAttempts bounds the root-creation retry loop. With UUID names a
// second attempt should never be needed; the bound exists so a persistent
// filesystem problem surfaces as an error instead of an infinite loop.
const createAttempts = 3

// Workspace is the root of a run's temporary file tree.
type Workspace struct {
	// root is the absolute path of the workspace directory.
	root string

	// keep disables removal on Cleanup. Used for debugging failed runs.
	keep bool
}

// New creates a workspace rooted under the system temp directory.
// When keep is true, Cleanup leaves the directory in place and the
// caller is expected to tell the user where it is.
func New(keep bool) (*Workspace, error) {
	return NewAt(os.TempDir(), keep)
}

// NewAt creates a workspace under the given parent directory. Split out
// from New so tests can use t.TempDir() as the parent.
func NewAt(parent string, keep bool) (*Workspace, error) {
	var lastErr error
	for i := 0; i < createAttempts; i++ {
		root := filepath.Join(parent, "quilt-"+uuid.NewString())

		// os.Mkdir (not MkdirAll) fails if the path already exists,
		// which is exactly the collision signal the retry loop needs.
		err := os.Mkdir(root, 0o700)
		if err == nil {
			log.Debug().Str("root", root).Msg("workspace created")
			return &Workspace{root: root, keep: keep}, nil
		}
		if !os.IsExist(err) {
			return nil, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to create workspace under %s", parent), err)
		}
		lastErr = err
	}
	return nil, model.WrapCLIError(model.ExitGeneralError,
		fmt.Sprintf("failed to create a unique workspace under %s", parent), lastErr)
}

// Root returns the absolute path of the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// Kept reports whether Cleanup will retain the workspace.
func (w *Workspace) Kept() bool {
	return w.keep
}

// TempFile creates a new temporary file inside the workspace.
// The pattern follows os.CreateTemp semantics: a "*" in the pattern is
// replaced by a random string, otherwise the random string is appended.
// The caller owns the returned handle and must close it.
func (w *Workspace) TempFile(pattern string) (*os.File, error) {
	f, err := os.CreateTemp(w.root, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file in workspace: %w", err)
	}
	return f, nil
}

// TempDir creates a new uniquely named directory inside the workspace
// and returns its path.
func (w *Workspace) TempDir(prefix string) (string, error) {
	dir, err := os.MkdirTemp(w.root, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory in workspace: %w", err)
	}
	return dir, nil
}

// Cleanup removes the workspace and everything inside it, unless the
// workspace was created with keep set. Safe to call via defer on all
// exit paths; errors are returned rather than logged so the caller can
// decide whether a failed cleanup matters.
func (w *Workspace) Cleanup() error {
	if w.keep {
		log.Info().Str("root", w.root).Msg("workspace retained (keep-temp)")
		return nil
	}
	log.Debug().Str("root", w.root).Msg("removing workspace")
	return os.RemoveAll(w.root)
}
