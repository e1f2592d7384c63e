// resolve.go implements the "quilt resolve" command.
//
// resolve runs only the first pipeline stage and prints the resulting
// descriptors. It exists for checking what a set of identifiers will
// expand to, particularly which owner a bare name picks up, without
// touching the network.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/quilt/internal/config"
	"github.com/mmr-tortoise/quilt/internal/model"
	"github.com/mmr-tortoise/quilt/internal/resolver"
)

// NewResolveCommand creates the "resolve" cobra command.
func NewResolveCommand() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "resolve identifier...",
		Short: "Show how repository identifiers resolve to owner/name pairs",
		Long: `Resolve each identifier to its owner/name descriptor and print the result.

Useful for verifying which owner a bare repository name will pick up
before running apply. No network access is performed.

Examples:
  quilt resolve acme/templates-base
  quilt resolve --owner acme templates-base ci-config`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(args, owner)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Default owner for identifiers without one")

	return cmd
}

// runResolve resolves the identifiers and prints them in text or JSON.
func runResolve(identifiers []string, owner string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	// The config file's default owner applies here too, so resolve
	// previews exactly what apply would do.
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	descriptors, err := resolver.Resolve(identifiers, pickString(owner, cfg.DefaultOwner))
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(descriptors, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	for _, d := range descriptors {
		fmt.Printf("%-20s %s\n", d.Owner, d.Name)
	}
	return nil
}
