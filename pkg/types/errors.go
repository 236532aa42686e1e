package types

import (
	"errors"
	"fmt"
)

// StructureError is returned when a filename does not follow
// {startname}_{types}_{seed}.csv
type StructureError struct {
	Filename string
	Reason   string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("malformed output filename %q: %s", e.Filename, e.Reason)
}

// ParseError is returned when the seed segment of a filename is not an integer
type ParseError struct {
	Filename string
	Segment  string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid seed %q in output filename %q", e.Segment, e.Filename)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned for unsupported settings such as an unknown
// calculation mode
type ConfigurationError struct {
	Setting string
	Value   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Setting, e.Value)
}

// MetadataError is returned when a job file lacks a key or holds a bad value
type MetadataError struct {
	Section string
	Key     string
	Err     error
}

func (e *MetadataError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("job metadata: missing %s.%s", e.Section, e.Key)
	}
	return fmt.Sprintf("job metadata: %s.%s: %v", e.Section, e.Key, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// IsStructureError checks if err is, or wraps, a StructureError
func IsStructureError(err error) bool {
	var structureErr *StructureError
	return errors.As(err, &structureErr)
}

// IsParseError checks if err is, or wraps, a ParseError
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsConfigurationError checks if err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}
