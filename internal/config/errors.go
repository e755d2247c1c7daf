package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates the configuration directory was not found.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrValidationFailed indicates configuration validation failed.
	ErrValidationFailed = errors.New("configuration validation failed")

	// ErrPipelineNotFound indicates a pipeline slug has no registry entry.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrScoringRuleNotFound indicates a scoring rule id has no registry entry.
	ErrScoringRuleNotFound = errors.New("scoring rule not found")

	// ErrMissingBrokerDSN indicates the queue broker DSN was not configured.
	ErrMissingBrokerDSN = errors.New("broker DSN is required")

	// ErrNegativeThreshold indicates a threshold config value was negative.
	ErrNegativeThreshold = errors.New("threshold values must be non-negative")

	// ErrTierOrder indicates the WARM/HOT/VERY_HOT tiers are not ascending.
	ErrTierOrder = errors.New("score tiers must be non-decreasing: warm <= hot <= very_hot")

	// ErrDuplicateID indicates two configuration entries share an identifier.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrMissingRequiredField indicates a required field is missing.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrDefaultPipelineCount indicates the set of pipelines does not carry
	// exactly one is_default=true entry.
	ErrDefaultPipelineCount = errors.New("exactly one pipeline must be marked is_default")
)

// ValidationError wraps configuration validation errors with context,
// mirroring the shape used for request-level validation errors.
type ValidationError struct {
	Component string
	ID        string
	Field     string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %q: field %q: %v", e.Component, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Component, e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError.
func NewValidationError(component, id, field string, err error) *ValidationError {
	return &ValidationError{Component: component, ID: id, Field: field, Err: err}
}

// LoadError wraps configuration loading errors with file context.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load %s: %v", e.File, e.Err) }
func (e *LoadError) Unwrap() error  { return e.Err }

// NewLoadError builds a LoadError.
func NewLoadError(file string, err error) *LoadError {
	return &LoadError{File: file, Err: err}
}
