package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// validMigrations enumerates the migration-aware diff-filtering profiles
// spec §4.9/§9 defines.
var validMigrations = map[string]bool{
	"":                         true,
	"kapitan-0.29-to-0.30":     true,
	"ignore-yaml-formatting":   true,
}

// Validator validates a loaded Config's field values.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the given configuration.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.APIURL == "" {
		errs = append(errs, ValidationError{
			Field:   "apiUrl",
			Message: "must be set (or COMMODORE_API_URL / --api-url)",
		})
	}

	if cfg.Parallelism < 0 {
		errs = append(errs, ValidationError{
			Field:   "parallelism",
			Message: "must not be negative",
		})
	}

	if cfg.RequestTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "requestTimeout",
			Message: "must not be negative",
		})
	}

	if !validMigrations[cfg.Migration] {
		errs = append(errs, ValidationError{
			Field:   "migration",
			Message: "must be one of: \"\", \"kapitan-0.29-to-0.30\", \"ignore-yaml-formatting\"",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateFile validates a configuration file at the given path.
func (v *Validator) ValidateFile(path string) error {
	loader := NewLoader()
	cfg, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	return v.Validate(cfg)
}
