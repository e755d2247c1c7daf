package config

import "dario.cat/mergo"

// mergeOverUser merges the built-in defaults under a user-loaded config,
// with user values taking precedence on any field they set: builtin
// defaults, then override.
func mergeOverUser(defaults, user *Config) (*Config, error) {
	merged := *defaults
	if err := mergo.Merge(&merged, user, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, err
	}
	return &merged, nil
}
