// apply.go implements the "quilt apply" command.
//
// The apply command is the primary user-facing operation. It runs the
// full pipeline against a set of repository identifiers:
//
//  1. Load configuration and (optionally) a YAML manifest
//  2. Resolve identifiers into owner/name descriptors
//  3. Create the run workspace for temp files
//  4. Fetch each repository's latest release archive
//  5. Expand each archive into its own temp directory
//  6. Merge the expanded trees into the destination, resolving
//     collisions interactively or via the configured policy
//  7. Output results (text or JSON)
//
// Every stage fails fast: the first error aborts the run. Files already
// merged stay in the destination; there is no rollback.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/quilt/internal/archive"
	"github.com/mmr-tortoise/quilt/internal/config"
	"github.com/mmr-tortoise/quilt/internal/logging"
	"github.com/mmr-tortoise/quilt/internal/merge"
	"github.com/mmr-tortoise/quilt/internal/model"
	"github.com/mmr-tortoise/quilt/internal/release"
	"github.com/mmr-tortoise/quilt/internal/resolver"
	"github.com/mmr-tortoise/quilt/internal/workspace"
)

// maxRepositories bounds one run's input. The tool is meant for
// assembling a handful of template repositories; a larger batch is
// almost certainly a mistake.
const maxRepositories = 20

// applyFlags holds the flag values for the apply command.
// These are bound to cobra flags in NewApplyCommand.
type applyFlags struct {
	owner      string // --owner: default owner for bare identifiers
	dest       string // --dest: destination directory
	onConflict string // --on-conflict: ask | overwrite | skip | concat
	manifest   string // --manifest: YAML manifest path
	keepTemp   bool   // --keep-temp: retain the run workspace
}

// NewApplyCommand creates the "apply" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply [identifier...]",
		Short: "Fetch, expand, and merge the latest releases into a directory",
		Long: `Fetch the latest release archive of each repository, expand it, and merge
the file trees into the destination directory (which must already exist).

Identifiers have the form [owner/]name. A bare name uses the default owner
from --owner, the manifest, or the config file. Repositories can also come
from a YAML manifest (--manifest), in which case positional identifiers are
appended after the manifest's list.

Examples:
  quilt apply acme/templates-base
  quilt apply --owner acme templates-base ci-config
  quilt apply --dest ./project --on-conflict skip acme/templates-base
  quilt apply --manifest quilt.yaml`,

		// Identifier count is validated in runApply because the manifest
		// can contribute entries beyond the positional args.
		Args: cobra.ArbitraryArgs,

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), args, flags)
		},
	}

	// Register command-specific flags.
	cmd.Flags().StringVar(&flags.owner, "owner", "", "Default owner for identifiers without one")
	cmd.Flags().StringVar(&flags.dest, "dest", "", "Destination directory (default: current directory)")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "", "Collision policy: ask, overwrite, skip, or concat (default: ask)")
	cmd.Flags().StringVar(&flags.manifest, "manifest", "", "YAML manifest listing repositories to merge")
	cmd.Flags().BoolVar(&flags.keepTemp, "keep-temp", false, "Keep downloaded archives and expanded trees for debugging")

	return cmd
}

// runApply is the main orchestration function for the apply command.
func runApply(ctx context.Context, args []string, flags *applyFlags) error {
	logger := logging.GetLogger("apply")

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	// Step 1: Configuration. Precedence for every setting is
	// config file < manifest < explicit CLI flag.
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	var manifest *config.Manifest
	if flags.manifest != "" {
		manifest, err = config.LoadManifest(flags.manifest)
		if err != nil {
			return err
		}
		logger.Debug().Str("path", flags.manifest).Int("repos", len(manifest.Repos)).Msg("manifest loaded")
	}

	identifiers, err := collectIdentifiers(args, manifest)
	if err != nil {
		return err
	}

	// Step 2: Resolve identifiers into descriptors.
	defaultOwner := pickString(flags.owner, manifestOwner(manifest), cfg.DefaultOwner)
	descriptors, err := resolver.Resolve(identifiers, defaultOwner)
	if err != nil {
		return err
	}
	logger.Info().Int("repos", len(descriptors)).Msg("resolved repositories")

	destination := pickString(flags.dest, manifestDestination(manifest), cwd)
	if !filepath.IsAbs(destination) {
		destination = filepath.Join(cwd, destination)
	}

	collisionResolver, err := conflictResolver(pickString(flags.onConflict, manifestPolicy(manifest), cfg.OnConflict))
	if err != nil {
		return err
	}

	// Step 3: Run workspace. Cleanup runs on every exit path; with
	// keep-temp it retains the directory and logs its location instead.
	ws, err := workspace.New(flags.keepTemp || cfg.KeepTemp)
	if err != nil {
		return err
	}
	defer func() {
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			logger.Warn().Err(cleanupErr).Str("root", ws.Root()).Msg("workspace cleanup failed")
		}
	}()

	// Step 4: Fetch all latest release archives, in order.
	client := release.NewClientWithOptions(
		pickString(os.Getenv("GITHUB_API_URL"), cfg.APIURL, release.DefaultBaseURL),
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second,
	)
	assets, err := client.FetchAllLatest(ctx, descriptors, ws)
	if err != nil {
		return err
	}

	// Step 5: Expand every archive into its own temp directory.
	trees, err := archive.ExpandAll(assets, ws)
	if err != nil {
		return err
	}

	// Step 6: Merge. A mid-merge failure leaves earlier children in the
	// destination; the warning makes that state visible to the user.
	if err := merge.Merge(trees, destination, collisionResolver); err != nil {
		logger.Warn().Str("destination", destination).Msg("merge aborted, destination may hold partial output")
		return err
	}

	// Step 7: Output results.
	printApplyResult(descriptors, destination)
	return nil
}

// collectIdentifiers combines manifest entries with positional arguments
// (manifest first, preserving each source's order) and enforces the
// 1–20 bound on the combined list.
func collectIdentifiers(args []string, manifest *config.Manifest) ([]string, error) {
	var identifiers []string
	if manifest != nil {
		identifiers = append(identifiers, manifest.Repos...)
	}
	identifiers = append(identifiers, args...)

	if len(identifiers) == 0 {
		return nil, model.NewCLIError(model.ExitGeneralError,
			"no repositories given: pass identifiers or --manifest")
	}
	if len(identifiers) > maxRepositories {
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("too many repositories: %d (maximum %d)", len(identifiers), maxRepositories))
	}
	return identifiers, nil
}

// conflictResolver maps a policy string to a merge.Resolver. "ask" (and
// the empty default) mean the interactive prompt; any merge decision
// name means that decision for every collision.
func conflictResolver(policy string) (merge.Resolver, error) {
	if policy == "" || policy == "ask" {
		return newInteractiveResolver(), nil
	}
	decision, err := model.ParseMergeDecision(policy)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid --on-conflict policy %q", policy), err)
	}
	return merge.Always(decision), nil
}

// pickString returns the first non-empty value, encoding the
// flag > manifest > config precedence at each call site.
func pickString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// manifestOwner, manifestDestination, and manifestPolicy are nil-safe
// accessors so precedence chains stay readable.
func manifestOwner(m *config.Manifest) string {
	if m == nil {
		return ""
	}
	return m.Owner
}

func manifestDestination(m *config.Manifest) string {
	if m == nil {
		return ""
	}
	return m.Destination
}

func manifestPolicy(m *config.Manifest) string {
	if m == nil {
		return ""
	}
	return m.OnConflict
}

// printApplyResult outputs the apply results in text or JSON format.
func printApplyResult(descriptors []model.RepoDescriptor, destination string) {
	if IsJSONOutput() {
		type resultJSON struct {
			Destination  string                 `json:"destination"`
			Repositories []model.RepoDescriptor `json:"repositories"`
		}
		data, _ := json.MarshalIndent(resultJSON{
			Destination:  destination,
			Repositories: descriptors,
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Merged %d release(s) into %s\n", len(descriptors), destination)
	for _, d := range descriptors {
		fmt.Printf("  %s\n", d.FullName())
	}
}
