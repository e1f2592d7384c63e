// manifest.go loads YAML repository manifests.
//
// A manifest declares the full input of an unattended run (the
// repository set plus the owner, destination, and conflict policy) so a
// project can check in a quilt.yaml and bootstrap with a single
// `quilt apply --manifest quilt.yaml`.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/quilt/internal/model"
)

// Manifest is the parsed form of a quilt.yaml file.
//
// Example:
//
//	owner: acme
//	destination: ./project
//	onConflict: skip
//	repos:
//	  - templates-base
//	  - shared/ci-config
type Manifest struct {
	// Owner is the default owner for identifiers in Repos that don't
	// carry one. Overrides the config file's defaultOwner.
	Owner string `yaml:"owner,omitempty"`

	// Destination is the merge target directory. Relative paths are
	// resolved against the working directory, not the manifest location.
	Destination string `yaml:"destination,omitempty"`

	// OnConflict is the collision policy for this manifest's run:
	// "ask" or one of overwrite, skip, concat.
	OnConflict string `yaml:"onConflict,omitempty"`

	// Repos lists the repository identifiers ("[owner/]name") to fetch
	// and merge, in merge order.
	Repos []string `yaml:"repos"`
}

// LoadManifest reads and validates a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to read manifest %s", path), err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid manifest %s", path), err)
	}

	if len(m.Repos) == 0 {
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("manifest %s lists no repositories", path))
	}
	for _, repo := range m.Repos {
		if repo == "" {
			return nil, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("manifest %s contains an empty repository entry", path))
		}
	}
	if err := validateOnConflict(m.OnConflict); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid manifest %s", path), err)
	}

	return &m, nil
}
