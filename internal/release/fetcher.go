// fetcher.go implements the latest-release fetch pipeline on top of the
// API client in client.go.
//
// Per repository, fetching is three steps:
//  1. GET the latest-release endpoint → assets listing URL
//  2. GET the assets listing → FIRST asset's direct download URL
//  3. stream-download that URL into a workspace temp file
//
// The first-asset rule is deliberate: the design assumes a release carries
// exactly one relevant asset and takes the first entry deterministically,
// with no filtering by name or content type. A non-archive first asset
// surfaces later as an extraction failure, not here.
package release

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/mmr-tortoise/quilt/internal/model"
	"github.com/mmr-tortoise/quilt/internal/workspace"
)

// latestRelease is the subset of the latest-release response the fetcher
// needs. Everything else in the payload is ignored.
type latestRelease struct {
	// TagName is the release tag, used only for log output.
	TagName string `json:"tag_name"`

	// AssetsURL is the listing endpoint for the release's assets.
	AssetsURL string `json:"assets_url"`
}

// releaseAsset is a single entry in the asset listing.
type releaseAsset struct {
	// Name is the asset's file name, used only for log output.
	Name string `json:"name"`

	// BrowserDownloadURL is the direct download URL for the asset.
	BrowserDownloadURL string `json:"browser_download_url"`
}

// FetchLatest resolves and downloads the latest release archive for one
// repository. The archive lands in a temp file inside the workspace and
// the returned asset records both the file path and the originating
// descriptor.
//
// Failure classification:
//   - latest-release query fails → ReleaseLookupFailed
//   - asset listing query fails, or the release has no usable asset →
//     AssetLookupFailed
//   - download fails → DownloadFailed
//   - any of the three hits the request timeout → Timeout
func (c *Client) FetchLatest(ctx context.Context, descriptor model.RepoDescriptor, ws *workspace.Workspace) (model.DownloadedAsset, error) {
	// Step 1: latest-release metadata.
	releaseURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, descriptor.Owner, descriptor.Name)

	var release latestRelease
	if err := c.getJSON(ctx, releaseURL, &release); err != nil {
		return model.DownloadedAsset{}, classify(err, model.ExitReleaseLookupFailed,
			fmt.Sprintf("release lookup failed for %s", descriptor))
	}
	if release.AssetsURL == "" {
		return model.DownloadedAsset{}, model.NewCLIError(model.ExitReleaseLookupFailed,
			fmt.Sprintf("release lookup failed for %s: latest release has no assets URL", descriptor))
	}
	log.Debug().
		Stringer("repo", descriptor).
		Str("tag", release.TagName).
		Msg("resolved latest release")

	// Step 2: asset listing. The first listed asset wins, unconditionally.
	var assets []releaseAsset
	if err := c.getJSON(ctx, release.AssetsURL, &assets); err != nil {
		return model.DownloadedAsset{}, classify(err, model.ExitAssetLookupFailed,
			fmt.Sprintf("asset lookup failed for %s", descriptor))
	}
	if len(assets) == 0 || assets[0].BrowserDownloadURL == "" {
		return model.DownloadedAsset{}, model.NewCLIError(model.ExitAssetLookupFailed,
			fmt.Sprintf("asset lookup failed for %s: latest release has no downloadable assets", descriptor))
	}
	asset := assets[0]
	log.Debug().
		Stringer("repo", descriptor).
		Str("asset", asset.Name).
		Int("listed", len(assets)).
		Msg("selected first release asset")

	// Step 3: stream the asset into a workspace temp file.
	path, err := c.download(ctx, asset.BrowserDownloadURL, descriptor, ws)
	if err != nil {
		return model.DownloadedAsset{}, classify(err, model.ExitDownloadFailed,
			fmt.Sprintf("download failed for %s", descriptor))
	}
	log.Info().
		Stringer("repo", descriptor).
		Str("tag", release.TagName).
		Str("path", path).
		Msg("downloaded release asset")

	return model.DownloadedAsset{Repo: descriptor, Path: path}, nil
}

// FetchAllLatest applies FetchLatest to each descriptor in order.
// The returned assets are index-aligned with the input. The batch fails
// fast: the first error aborts the run and no partial result is returned.
func (c *Client) FetchAllLatest(ctx context.Context, descriptors []model.RepoDescriptor, ws *workspace.Workspace) ([]model.DownloadedAsset, error) {
	assets := make([]model.DownloadedAsset, 0, len(descriptors))

	for _, descriptor := range descriptors {
		asset, err := c.FetchLatest(ctx, descriptor, ws)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

// download streams url into a fresh workspace temp file and returns the
// file's path. The file name embeds the repository identity to make a
// retained workspace legible to a human.
func (c *Client) download(ctx context.Context, url string, descriptor model.RepoDescriptor, ws *workspace.Workspace) (string, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	f, err := ws.TempFile(descriptor.Owner + "-" + descriptor.Name + "-*.zip")
	if err != nil {
		return "", err
	}

	// io.Copy streams in chunks, so large archives never sit fully in
	// memory. A short write or aborted transfer is reported by Copy.
	_, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return "", copyErr
	}
	if closeErr != nil {
		return "", closeErr
	}

	return f.Name(), nil
}

// classify wraps err into a CLIError, promoting deadline expirations to
// the Timeout code so a slow remote is distinguishable from a broken one.
func classify(err error, code model.ExitCode, message string) *model.CLIError {
	if isTimeout(err) {
		return model.WrapCLIError(model.ExitTimeout, message+": request timed out", err)
	}
	return model.WrapCLIError(code, message, err)
}
