package compartment

import (
	"slices"
	"strings"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

var (
	pshaPrefixes           = []string{"hazard", "quantile"}
	disaggregationPrefixes = []string{"Mag", "Dist", "Lon", "TRT"}
)

// Criteria holds everything a filter pass can be constrained by. Query is
// used in psha mode, DisaggregationPatterns in disaggregation mode.
type Criteria struct {
	Query                  types.Query `json:"query" yaml:"query"`
	DisaggregationPatterns []string    `json:"disaggregation_patterns" yaml:"disaggregation_patterns"`
}

// Decision is what the filter did with one filename
type Decision int

const (
	// Dropped: the name does not carry a prefix of the requested family
	Dropped Decision = iota
	// Rejected: right family, but the criteria did not match
	Rejected
	// Matched: kept in the output
	Matched
)

func (d Decision) String() string {
	switch d {
	case Dropped:
		return "dropped"
	case Rejected:
		return "rejected"
	case Matched:
		return "matched"
	}
	return "unknown"
}

// Observer is notified of every filter decision
type Observer func(filename string, mode types.CalculationMode, decision Decision)

type filterOptions struct {
	observer Observer
}

// Option customizes a filter pass
type Option func(*filterOptions)

// WithObserver installs a hook receiving every filter decision
func WithObserver(observer Observer) Option {
	return func(o *filterOptions) {
		o.observer = observer
	}
}

func (o *filterOptions) notify(filename string, mode types.CalculationMode, decision Decision) {
	if o.observer != nil {
		o.observer(filename, mode, decision)
	}
}

// Filter returns the filenames of the given calculation family that satisfy
// the criteria, in input order with duplicates kept. In psha mode a
// malformed filename aborts the whole pass.
func Filter(filenames []string, mode types.CalculationMode, criteria Criteria, opts ...Option) ([]string, error) {
	o := &filterOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch mode {
	case types.CalculationModePSHA:
		return filterPSHA(filenames, criteria.Query, o)
	case types.CalculationModeDisaggregation:
		return filterDisaggregation(filenames, criteria.DisaggregationPatterns, o), nil
	}
	return nil, &types.ConfigurationError{Setting: "calculation_mode", Value: string(mode)}
}

func filterPSHA(filenames []string, query types.Query, o *filterOptions) ([]string, error) {
	kept := []string{}
	for _, filename := range filenames {
		if !hasAnyPrefix(filename, pshaPrefixes) {
			o.notify(filename, types.CalculationModePSHA, Dropped)
			continue
		}

		rec, err := Parse(filename)
		if err != nil {
			return nil, err
		}

		if !Match(rec, query) {
			o.notify(filename, types.CalculationModePSHA, Rejected)
			continue
		}
		o.notify(filename, types.CalculationModePSHA, Matched)
		kept = append(kept, filename)
	}
	return kept, nil
}

func filterDisaggregation(filenames []string, patterns []string, o *filterOptions) []string {
	kept := []string{}
	for _, filename := range filenames {
		if !hasAnyPrefix(filename, disaggregationPrefixes) {
			o.notify(filename, types.CalculationModeDisaggregation, Dropped)
			continue
		}

		if !containsAll(filename, patterns) {
			o.notify(filename, types.CalculationModeDisaggregation, Rejected)
			continue
		}
		o.notify(filename, types.CalculationModeDisaggregation, Matched)
		kept = append(kept, filename)
	}
	return kept
}

// Match reports whether rec satisfies every constrained field of q.
// Text fields match when any accepted value is a substring of the record
// value; seed matches by membership. An absent type_acc never satisfies a
// type_acc constraint.
func Match(rec types.FilenameRecord, q types.Query) bool {
	for _, field := range types.Fields {
		if !q.Constrains(field) {
			continue
		}

		if field == types.FieldSeed {
			if !slices.Contains(q.Seed, rec.Seed) {
				return false
			}
			continue
		}

		value, ok := rec.Text(field)
		if !ok || !containsAny(value, q.Values(field)) {
			return false
		}
	}
	return true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, substrings []string) bool {
	for _, sub := range substrings {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
