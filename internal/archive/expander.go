// Package archive expands downloaded release archives into workspace
// temp directories.
//
// Only ZIP archives are supported. Each asset is extracted into a fresh
// uniquely named directory allocated from the run workspace, one
// directory per asset, so the merger can treat every input tree as an
// independent read-only root.
//
// Deflate streams are decompressed with github.com/klauspost/compress,
// which is substantially faster than the standard library's flate on the
// multi-megabyte template archives this tool typically handles.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog/log"

	"github.com/mmr-tortoise/quilt/internal/model"
	"github.com/mmr-tortoise/quilt/internal/workspace"
)

// Expand extracts one downloaded archive into a fresh workspace temp
// directory and returns the resulting tree.
//
// Every failure (unreadable file, non-ZIP content, an entry that would
// escape the extraction root) is wrapped with ExitExtractionFailed and
// names the originating repository.
func Expand(asset model.DownloadedAsset, ws *workspace.Workspace) (model.ExpandedTree, error) {
	reader, err := zip.OpenReader(asset.Path)
	if err != nil {
		return model.ExpandedTree{}, model.WrapCLIError(model.ExitExtractionFailed,
			fmt.Sprintf("extraction failed for %s: not a valid ZIP archive", asset.Repo), err)
	}
	defer func() { _ = reader.Close() }()

	// Swap in klauspost's flate for all Deflate-compressed entries.
	reader.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	dir, err := ws.TempDir(asset.Repo.Owner + "-" + asset.Repo.Name + "-")
	if err != nil {
		return model.ExpandedTree{}, model.WrapCLIError(model.ExitExtractionFailed,
			fmt.Sprintf("extraction failed for %s", asset.Repo), err)
	}

	for _, entry := range reader.File {
		if err := extractEntry(entry, dir); err != nil {
			return model.ExpandedTree{}, model.WrapCLIError(model.ExitExtractionFailed,
				fmt.Sprintf("extraction failed for %s: entry %q", asset.Repo, entry.Name), err)
		}
	}

	log.Debug().
		Stringer("repo", asset.Repo).
		Str("dir", dir).
		Int("entries", len(reader.File)).
		Msg("expanded archive")

	return model.ExpandedTree{Repo: asset.Repo, Path: dir}, nil
}

// ExpandAll expands each asset in order. The returned trees are
// index-aligned with the input assets. Fail-fast: the first corrupt
// archive aborts the batch, since a partially merged destination is
// worse than an aborted run.
func ExpandAll(assets []model.DownloadedAsset, ws *workspace.Workspace) ([]model.ExpandedTree, error) {
	trees := make([]model.ExpandedTree, 0, len(assets))

	for _, asset := range assets {
		tree, err := Expand(asset, ws)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}

	return trees, nil
}

// extractEntry writes a single archive entry under root, creating parent
// directories as needed and preserving the entry's file mode.
func extractEntry(entry *zip.File, root string) error {
	target, err := sanitizePath(entry.Name, root)
	if err != nil {
		return err
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, entry.Mode().Perm()|0o700)
	}

	// Entries are not guaranteed to be preceded by their parent
	// directory entries, so create parents unconditionally.
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode().Perm()|0o600)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// sanitizePath resolves an archive entry name against the extraction
// root and rejects names that would land outside it (absolute paths or
// ".." traversal, the classic zip-slip attack).
func sanitizePath(name, root string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute entry path not allowed")
	}

	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry path escapes extraction directory")
	}
	return target, nil
}
