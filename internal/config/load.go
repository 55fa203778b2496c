package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOptions lists the sources Load reads, lowest precedence first
type LoadOptions struct {
	// File is an optional YAML settings file
	File string
	// EnvFile is an optional KEY=VALUE file
	EnvFile string
	// Lookup reads the process environment; nil means os.LookupEnv
	Lookup Lookup
}

// Load resolves settings from defaults, the YAML file, the env file and the
// environment. Flags are applied by the caller before Validate.
func Load(opts LoadOptions) (*Settings, error) {
	s := Defaults()

	if opts.File != "" {
		if err := s.loadFile(opts.File); err != nil {
			return nil, err
		}
	}

	if opts.EnvFile != "" {
		vars, err := LoadEnvFile(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		if err := s.ApplyEnv(MapLookup(vars)); err != nil {
			return nil, err
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := s.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return nil
}
