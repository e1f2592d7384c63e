// Package config loads quilt's optional configuration file and repository
// manifests.
//
// The configuration file uses JSONC (JSON with Comments) so users can
// annotate their setup; github.com/tidwall/jsonc strips comments and
// trailing commas before parsing with the standard encoding/json library.
// Repository manifests for unattended runs are YAML (manifest.go).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/quilt/internal/model"
)

// FileName is the configuration file name looked up in the working
// directory and in the user config directory.
const FileName = "quilt.jsonc"

// defaultRequestTimeoutSeconds matches the release client's default; the
// config file can shorten or extend it.
const defaultRequestTimeoutSeconds = 30

// Config holds the user-level defaults for a quilt run. Every field can
// be overridden by a manifest or a CLI flag; precedence is
// config < manifest < explicit flag.
type Config struct {
	// DefaultOwner fills in the owner segment for identifiers that
	// don't carry one.
	DefaultOwner string `json:"defaultOwner,omitempty"`

	// APIURL overrides the hosting API root (GitHub Enterprise etc.).
	// The GITHUB_API_URL environment variable takes precedence over this.
	APIURL string `json:"apiURL,omitempty"`

	// RequestTimeoutSeconds bounds each remote lookup and download.
	RequestTimeoutSeconds int `json:"requestTimeoutSeconds,omitempty"`

	// KeepTemp retains the run workspace instead of removing it.
	KeepTemp bool `json:"keepTemp,omitempty"`

	// OnConflict is the default collision policy: "ask" or one of the
	// merge decisions (overwrite, skip, concat).
	OnConflict string `json:"onConflict,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		OnConflict:            "ask",
	}
}

// Load reads the first configuration file found in the search path and
// merges it over the defaults. A missing file is not an error; the
// defaults are returned as-is.
//
// Search order:
//  1. <startDir>/quilt.jsonc
//  2. $XDG_CONFIG_HOME/quilt/quilt.jsonc (or ~/.config/quilt/quilt.jsonc)
func Load(startDir string) (Config, error) {
	for _, path := range searchPaths(startDir) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to read config file %s", path), err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Config{}, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid config file %s", path), err)
		}
		return cfg, nil
	}
	return Default(), nil
}

// Parse decodes JSONC config bytes over the default configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	// jsonc.ToJSON strips // and /* */ comments plus trailing commas,
	// leaving plain JSON for the standard decoder.
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if err := validateOnConflict(cfg.OnConflict); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validateOnConflict accepts "ask" or any valid merge decision.
func validateOnConflict(policy string) error {
	if policy == "" || policy == "ask" {
		return nil
	}
	if _, err := model.ParseMergeDecision(policy); err != nil {
		return fmt.Errorf("invalid onConflict policy %q (valid: ask, overwrite, skip, concat)", policy)
	}
	return nil
}

// searchPaths builds the ordered list of candidate config file locations.
func searchPaths(startDir string) []string {
	paths := []string{filepath.Join(startDir, FileName)}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, "quilt", FileName))
	}
	return paths
}
