package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/habbo-go/internal/infra/confloader"
)

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// File is an explicit config file; it must exist. When empty the
	// default path is used if present.
	File string
	// Flags are "section.key" overrides from the command line.
	Flags map[string]any
	// EnvPrefix overrides confloader.DefaultEnvPrefix.
	EnvPrefix string
}

// Load merges defaults, file, environment and flags, then validates.
// The returned path is the file that was read, or "".
func Load(opts LoadOptions) (*CLIConfig, string, error) {
	path, err := resolvePath(opts.File)
	if err != nil {
		return nil, "", err
	}

	loaderOpts := []confloader.Option{
		confloader.WithDefaults(Flatten(Default())),
		confloader.WithConfigFile(path),
		confloader.WithOverrides(opts.Flags),
	}
	if opts.EnvPrefix != "" {
		loaderOpts = append(loaderOpts, confloader.WithEnvPrefix(opts.EnvPrefix))
	}

	cfg := &CLIConfig{}
	if err := confloader.NewLoader(loaderOpts...).Load(cfg); err != nil {
		return nil, path, err
	}

	if err := Validate(cfg); err != nil {
		return nil, path, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, path, nil
}

func resolvePath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	path := DefaultConfigPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("config file: %w", err)
	}
	return path, nil
}

// Save writes cfg as YAML with owner-only permissions. Existing files are
// kept unless overwrite is set.
func Save(cfg *CLIConfig, path string, overwrite bool) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
