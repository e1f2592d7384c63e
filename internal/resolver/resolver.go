// Package resolver turns raw repository identifiers into structured
// descriptors.
//
// An identifier has the form "[owner/]name". When the owner segment is
// absent or empty, a configured default owner is substituted. Resolution
// is a pure function of its inputs (the default owner is an explicit
// parameter, never ambient state), which keeps the package trivially
// testable and free of side effects.
package resolver

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/quilt/internal/model"
)

// Resolve converts each identifier into a model.RepoDescriptor, preserving
// input order. One descriptor is produced per identifier.
//
// Splitting happens at the FIRST separator occurrence, so an identifier
// like "acme/tools/extra" yields owner "acme" and name "tools/extra";
// whether that name is meaningful is for the hosting API to decide.
//
// Failure cases:
//   - owner segment absent or empty and defaultOwner is empty →
//     CLIError with ExitMissingOwner
//   - name segment empty after the split → CLIError with ExitGeneralError
func Resolve(identifiers []string, defaultOwner string) ([]model.RepoDescriptor, error) {
	descriptors := make([]model.RepoDescriptor, 0, len(identifiers))

	for _, identifier := range identifiers {
		descriptor, err := resolveOne(identifier, defaultOwner)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, descriptor)
	}

	return descriptors, nil
}

// resolveOne resolves a single identifier. See Resolve for the contract.
func resolveOne(identifier, defaultOwner string) (model.RepoDescriptor, error) {
	owner, name, found := strings.Cut(identifier, "/")
	if !found {
		// No separator: the whole identifier is the name and the owner
		// must come from the default.
		name = identifier
		owner = ""
	}

	if owner == "" {
		if defaultOwner == "" {
			return model.RepoDescriptor{}, model.NewCLIError(
				model.ExitMissingOwner,
				fmt.Sprintf("repository %q has no owner and no default owner is configured", identifier),
			)
		}
		owner = defaultOwner
	}

	if name == "" {
		return model.RepoDescriptor{}, model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("invalid repository identifier %q: name must not be empty", identifier),
		)
	}

	return model.RepoDescriptor{Owner: owner, Name: name}, nil
}
