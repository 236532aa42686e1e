package types

import (
	"strings"
)

// CalculationMode selects which family of engine outputs a filter pass works on
type CalculationMode string

const (
	CalculationModePSHA           CalculationMode = "psha"
	CalculationModeDisaggregation CalculationMode = "disaggregation"
)

// ParseCalculationMode validates a user supplied mode. There is no default mode.
func ParseCalculationMode(s string) (CalculationMode, error) {
	switch CalculationMode(s) {
	case CalculationModePSHA, CalculationModeDisaggregation:
		return CalculationMode(s), nil
	}
	return "", &ConfigurationError{Setting: "calculation_mode", Value: s}
}

// Field names a FilenameRecord field a query can constrain
type Field int

const (
	FieldStartname Field = iota
	FieldTypeFilename
	FieldTypeData
	FieldTypeAcc
	FieldSeed
)

var fieldNames = [...]string{
	FieldStartname:    "startname",
	FieldTypeFilename: "type_filename",
	FieldTypeData:     "type_data",
	FieldTypeAcc:      "type_acc",
	FieldSeed:         "seed",
}

// Fields lists every queryable field in record order
var Fields = []Field{FieldStartname, FieldTypeFilename, FieldTypeData, FieldTypeAcc, FieldSeed}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField accepts both the snake_case and the dashed spelling ("type-acc")
func ParseField(s string) (Field, bool) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for i, name := range fieldNames {
		if name == s {
			return Field(i), true
		}
	}
	return 0, false
}

// FilenameRecord is the metadata recovered from one PSHA output filename,
// e.g. hazard_curve-rlz-001-PGA_14.csv.
type FilenameRecord struct {
	Startname    string  `json:"startname" yaml:"startname"`
	TypeFilename string  `json:"type_filename" yaml:"type_filename"`
	TypeData     string  `json:"type_data" yaml:"type_data"`
	TypeAcc      *string `json:"type_acc" yaml:"type_acc"` // nil for uhs files
	Seed         int     `json:"seed" yaml:"seed"`
}

// HasTypeAcc reports whether the record carries an acceleration threshold
func (r FilenameRecord) HasTypeAcc() bool {
	return r.TypeAcc != nil
}

// Acc returns the acceleration threshold or "" when absent
func (r FilenameRecord) Acc() string {
	if r.TypeAcc == nil {
		return ""
	}
	return *r.TypeAcc
}

// Text returns the value of a string field. ok is false for seed and for an
// absent type_acc.
func (r FilenameRecord) Text(f Field) (value string, ok bool) {
	switch f {
	case FieldStartname:
		return r.Startname, true
	case FieldTypeFilename:
		return r.TypeFilename, true
	case FieldTypeData:
		return r.TypeData, true
	case FieldTypeAcc:
		if r.TypeAcc == nil {
			return "", false
		}
		return *r.TypeAcc, true
	}
	return "", false
}

// Query holds the accepted values per field. A nil or empty slice means the
// field is unconstrained.
type Query struct {
	Startname    []string `json:"startname,omitempty" yaml:"startname,omitempty"`
	TypeFilename []string `json:"type_filename,omitempty" yaml:"type_filename,omitempty"`
	TypeData     []string `json:"type_data,omitempty" yaml:"type_data,omitempty"`
	TypeAcc      []string `json:"type_acc,omitempty" yaml:"type_acc,omitempty"`
	Seed         []int    `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Values returns the accepted values of a text field
func (q Query) Values(f Field) []string {
	switch f {
	case FieldStartname:
		return q.Startname
	case FieldTypeFilename:
		return q.TypeFilename
	case FieldTypeData:
		return q.TypeData
	case FieldTypeAcc:
		return q.TypeAcc
	}
	return nil
}

// Constrains reports whether f has at least one accepted value
func (q Query) Constrains(f Field) bool {
	if f == FieldSeed {
		return len(q.Seed) > 0
	}
	return len(q.Values(f)) > 0
}

// IsEmpty is true when no field is constrained
func (q Query) IsEmpty() bool {
	for _, f := range Fields {
		if q.Constrains(f) {
			return false
		}
	}
	return true
}
