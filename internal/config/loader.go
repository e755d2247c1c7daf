package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads crm.yaml from dir (if present), expands environment
// variables, merges it over the built-in defaults, and validates the
// result. dir may be empty, in which case only defaults are validated
// and returned.
func Load(dir string) (*Config, error) {
	defaults := Defaults()

	if dir == "" {
		if err := NewValidator(defaults).ValidateAll(); err != nil {
			return nil, err
		}
		return defaults, nil
	}

	path := filepath.Join(dir, "crm.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := NewValidator(defaults).ValidateAll(); err != nil {
				return nil, err
			}
			return defaults, nil
		}
		return nil, NewLoadError(path, err)
	}

	expanded := ExpandEnv(raw)

	var user Config
	if err := yaml.Unmarshal(expanded, &user); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	merged, err := mergeOverUser(defaults, &user)
	if err != nil {
		return nil, NewLoadError(path, err)
	}

	if err := NewValidator(merged).ValidateAll(); err != nil {
		return nil, err
	}

	return merged, nil
}
