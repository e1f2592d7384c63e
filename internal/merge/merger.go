// Package merge copies expanded release trees into a destination
// directory, resolving file-name collisions through an injected Resolver.
//
// The merger itself contains no prompting logic: the decision contract
// is a capability handed in by the caller, which makes the engine fully
// testable with deterministic stub decisions and lets the CLI swap an
// interactive prompt for a scripted policy in unattended runs.
//
// There is no rollback: if a later tree or file fails mid-merge, children
// already copied stay in the destination. This is intended behavior for a
// one-shot setup tool; each copied child is logged at debug level so a
// partially merged destination is observable after a failed run.
package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mmr-tortoise/quilt/internal/model"
)

// binarySniffLen is how many leading bytes are inspected when deciding
// whether a file is text. A NUL byte in this window marks it binary,
// matching the heuristic git and diff use.
const binarySniffLen = 8000

// Conflict describes a single file-name collision between a source tree
// child and an existing destination entry. It carries enough context for
// a prompt to describe the collision to a human.
type Conflict struct {
	// Name is the colliding child's name relative to the destination.
	Name string

	// Repo is the repository whose tree the source entry comes from.
	Repo model.RepoDescriptor

	// SourcePath is the absolute path of the source entry.
	SourcePath string

	// TargetPath is the absolute path of the existing destination entry.
	TargetPath string

	// SourceIsDir and TargetIsDir report whether each side is a directory.
	SourceIsDir bool
	TargetIsDir bool
}

// Resolver decides the outcome of one collision. Implementations may
// prompt the user, apply a fixed policy, or record calls in tests.
// Returning an error aborts the merge (e.g. user cancelled the prompt).
type Resolver interface {
	Resolve(conflict Conflict) (model.MergeDecision, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(conflict Conflict) (model.MergeDecision, error)

// Resolve satisfies Resolver.
func (f ResolverFunc) Resolve(conflict Conflict) (model.MergeDecision, error) {
	return f(conflict)
}

// Always returns a Resolver that applies the same decision to every
// collision. This is the scripted policy behind --on-conflict.
func Always(decision model.MergeDecision) Resolver {
	return ResolverFunc(func(Conflict) (model.MergeDecision, error) {
		return decision, nil
	})
}

// Merge copies the direct children of each tree into destination,
// in tree order, consulting resolver for every collision.
//
// The destination must already exist and is never created implicitly;
// a missing or non-directory destination fails with DestinationMissing
// before any filesystem change.
//
// Collisions are resolved independently per child: an overwrite or
// concat decision on one child never affects its siblings.
func Merge(trees []model.ExpandedTree, destination string, resolver Resolver) error {
	info, err := os.Stat(destination)
	if err != nil || !info.IsDir() {
		return model.WrapCLIError(model.ExitDestinationMissing,
			fmt.Sprintf("destination directory does not exist: %s", destination), err)
	}

	for _, tree := range trees {
		if err := mergeTree(tree, destination, resolver); err != nil {
			return err
		}
	}
	return nil
}

// mergeTree merges the direct children of one expanded tree.
func mergeTree(tree model.ExpandedTree, destination string, resolver Resolver) error {
	entries, err := os.ReadDir(tree.Path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read expanded tree for %s", tree.Repo), err)
	}

	// os.ReadDir returns entries sorted by name, which fixes the
	// directory-listing order the contract leaves open.
	for _, entry := range entries {
		source := filepath.Join(tree.Path, entry.Name())
		target := filepath.Join(destination, entry.Name())

		targetInfo, statErr := os.Lstat(target)
		if statErr != nil {
			if !os.IsNotExist(statErr) {
				return model.WrapCLIError(model.ExitGeneralError,
					fmt.Sprintf("failed to inspect destination entry %s", target), statErr)
			}

			// No collision: copy the child over, structure intact.
			if err := copyRecursive(source, target); err != nil {
				return model.WrapCLIError(model.ExitGeneralError,
					fmt.Sprintf("failed to copy %s from %s", entry.Name(), tree.Repo), err)
			}
			log.Debug().
				Stringer("repo", tree.Repo).
				Str("child", entry.Name()).
				Msg("copied into destination")
			continue
		}

		conflict := Conflict{
			Name:        entry.Name(),
			Repo:        tree.Repo,
			SourcePath:  source,
			TargetPath:  target,
			SourceIsDir: entry.IsDir(),
			TargetIsDir: targetInfo.IsDir(),
		}

		decision, err := resolver.Resolve(conflict)
		if err != nil {
			return err
		}
		log.Debug().
			Stringer("repo", tree.Repo).
			Str("child", entry.Name()).
			Stringer("decision", decision).
			Msg("collision resolved")

		if err := applyDecision(conflict, decision); err != nil {
			return err
		}
	}
	return nil
}

// applyDecision carries out a single collision decision.
func applyDecision(conflict Conflict, decision model.MergeDecision) error {
	switch decision {
	case model.DecisionSkip:
		return nil

	case model.DecisionOverwrite:
		// Full replacement: remove whatever is there, then copy the
		// source entry recursively.
		if err := os.RemoveAll(conflict.TargetPath); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to replace %s", conflict.TargetPath), err)
		}
		if err := copyRecursive(conflict.SourcePath, conflict.TargetPath); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to copy %s from %s", conflict.Name, conflict.Repo), err)
		}
		return nil

	case model.DecisionConcat:
		return concatenate(conflict)

	default:
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("resolver returned invalid decision %q for %s", decision, conflict.Name))
	}
}

// concatenate appends the source file's bytes to the target file.
// Concatenation is only well-defined for regular text files; directories
// and binary content fail loudly rather than silently corrupting data.
func concatenate(conflict Conflict) error {
	if conflict.SourceIsDir || conflict.TargetIsDir {
		return model.NewCLIError(model.ExitUnsupportedConcatenation,
			fmt.Sprintf("cannot concatenate %q: concatenation is only supported for regular files", conflict.Name))
	}

	for _, path := range []string{conflict.TargetPath, conflict.SourcePath} {
		binary, err := looksBinary(path)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to inspect %s for concatenation", path), err)
		}
		if binary {
			return model.NewCLIError(model.ExitUnsupportedConcatenation,
				fmt.Sprintf("cannot concatenate %q: %s is binary", conflict.Name, path))
		}
	}

	src, err := os.Open(conflict.SourcePath)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to open %s for concatenation", conflict.SourcePath), err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(conflict.TargetPath, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to open %s for appending", conflict.TargetPath), err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to append %s to %s", conflict.SourcePath, conflict.TargetPath), copyErr)
	}
	if closeErr != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to finalize %s", conflict.TargetPath), closeErr)
	}
	return nil
}

// looksBinary reports whether the file at path appears to hold binary
// content, by checking the leading bytes for a NUL.
func looksBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, binarySniffLen)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}

	for _, b := range buf[:n] {
		if b == 0 {
			return true, nil
		}
	}
	return false, nil
}

// copyRecursive copies src (file or directory) to dst, preserving
// structure and file modes. Symbolic links are skipped: release
// archives should not contain them, and following them from an
// untrusted archive would be a hazard.
func copyRecursive(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("error walking source tree at %s: %w", path, walkErr)
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		target := dst
		if relPath != "." {
			target = filepath.Join(dst, relPath)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		if info.IsDir() {
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			return nil
		}

		return copyFile(path, target, info.Mode().Perm())
	})
}

// copyFile streams a single file from src to dst with the given mode.
// io.Copy keeps memory use flat regardless of file size.
func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	_, copyErr := io.Copy(dstFile, srcFile)
	closeErr := dstFile.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, copyErr)
	}
	return closeErr
}
