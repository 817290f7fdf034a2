package buildconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField indicates a required descriptor field is absent
	ErrMissingField = errors.New("required field missing")
	// ErrMalformed indicates a descriptor could not be read or decoded
	ErrMalformed = errors.New("malformed build configuration")
	// ErrInvalid is matched by every validation violation
	ErrInvalid = errors.New("invalid build configuration")
)

// ConfigurationError is returned when a descriptor cannot be loaded. The build must not start.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func missing(field string) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: ErrMissingField}
}

func malformed(field string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
}
