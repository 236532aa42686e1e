// Package jobini reads the metadata the plots need out of an engine job.ini
package jobini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

// DefaultDelimiter separates list values such as sites and poes
const DefaultDelimiter = " "

type readOptions struct {
	delimiter string
}

// Option customizes Read and Load
type Option func(*readOptions)

// WithDelimiter sets the separator of list values
func WithDelimiter(delimiter string) Option {
	return func(o *readOptions) {
		o.delimiter = delimiter
	}
}

var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
	AllowPythonMultilineValues: true,
}

// Read loads a job.ini from disk
func Read(path string, opts ...Option) (*types.JobMetadata, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("read job file %s: %w", path, err)
	}
	return extract(f, opts...)
}

// Load parses job.ini content held in memory
func Load(data []byte, opts ...Option) (*types.JobMetadata, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	return extract(f, opts...)
}

func extract(f *ini.File, opts ...Option) (*types.JobMetadata, error) {
	o := readOptions{delimiter: DefaultDelimiter}
	for _, opt := range opts {
		opt(&o)
	}

	r := &reader{file: f, delimiter: o.delimiter}
	meta := &types.JobMetadata{
		Geometry: types.GeometryMetadata{
			Sites: r.list("geometry", "sites"),
		},
		SiteParams: types.SiteParamsMetadata{
			Vs30: r.number("site_params", "reference_vs30_value"),
		},
		Calculation: types.CalculationMetadata{
			InvestigationTime:   r.number("calculation", "investigation_time"),
			MaximumDistance:     r.number("calculation", "maximum_distance"),
			PointsourceDistance: r.number("calculation", "pointsource_distance"),
			MinimumMagnitude:    r.number("calculation", "minimum_magnitude"),
		},
		Disaggregation: types.DisaggregationMetadata{
			Poes:        r.list("disaggregation", "poes_disagg"),
			MagBin:      r.number("disaggregation", "mag_bin_width"),
			DistBin:     r.number("disaggregation", "distance_bin_width"),
			CoordBin:    r.number("disaggregation", "coordinate_bin_width"),
			EpsilonBins: r.integer("disaggregation", "num_epsilon_bins"),
		},
		Output: types.OutputMetadata{
			Poes:      r.list("output", "poes"),
			Quantiles: r.list("output", "quantile_hazard_curves"),
		},
	}

	if raw := r.text("calculation", "intensity_measure_types_and_levels"); r.err == nil {
		imts, levels, err := ParseIMTLevels(raw)
		if err != nil {
			r.fail("calculation", "intensity_measure_types_and_levels", err)
		}
		meta.Calculation.IMTs = imts
		meta.Calculation.IMTLevels = levels
	}

	if r.err != nil {
		return nil, r.err
	}
	return meta, nil
}

// reader keeps the first lookup error so extract reads like a table
type reader struct {
	file      *ini.File
	delimiter string
	err       error
}

func (r *reader) fail(section, key string, err error) {
	if r.err == nil {
		r.err = &types.MetadataError{Section: section, Key: key, Err: err}
	}
}

func (r *reader) text(section, key string) string {
	if r.err != nil {
		return ""
	}
	sec, err := r.file.GetSection(section)
	if err != nil {
		r.fail(section, key, nil)
		return ""
	}
	k, err := sec.GetKey(key)
	if err != nil {
		r.fail(section, key, nil)
		return ""
	}
	return strings.TrimSpace(k.String())
}

func (r *reader) number(section, key string) float64 {
	raw := r.text(section, key)
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(section, key, err)
	}
	return v
}

func (r *reader) integer(section, key string) int {
	raw := r.text(section, key)
	if r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(section, key, err)
	}
	return v
}

func (r *reader) list(section, key string) []string {
	raw := r.text(section, key)
	if r.err != nil {
		return nil
	}
	values := []string{}
	for _, part := range strings.Split(raw, r.delimiter) {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

var logscalePattern = regexp.MustCompile(`logscale\(\s*([^,\s]+)\s*,\s*([^,\s]+)\s*,\s*(\d+)\s*\)`)

// ParseIMTLevels decodes intensity_measure_types_and_levels, a JSON object
// from intensity measure type to levels. Levels may also be written as
// logscale(min, max, n). IMT declaration order is returned alongside the map.
func ParseIMTLevels(raw string) ([]string, map[string][]float64, error) {
	var expandErr error
	expanded := logscalePattern.ReplaceAllStringFunc(raw, func(m string) string {
		levels, err := expandLogscale(logscalePattern.FindStringSubmatch(m)[1:])
		if err != nil && expandErr == nil {
			expandErr = err
		}
		encoded, _ := json.Marshal(levels)
		return string(encoded)
	})
	if expandErr != nil {
		return nil, nil, expandErr
	}

	levels := map[string][]float64{}
	if err := json.Unmarshal([]byte(expanded), &levels); err != nil {
		return nil, nil, fmt.Errorf("decode levels: %w", err)
	}

	imts, err := objectKeys([]byte(expanded))
	if err != nil {
		return nil, nil, err
	}
	return imts, levels, nil
}

func expandLogscale(args []string) ([]float64, error) {
	lo, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("logscale min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("logscale max: %w", err)
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("logscale count: %w", err)
	}
	if lo <= 0 || hi <= lo || n < 2 {
		return nil, fmt.Errorf("logscale(%s, %s, %s): need 0 < min < max and n >= 2", args[0], args[1], args[2])
	}

	logLo, logHi := math.Log10(lo), math.Log10(hi)
	step := (logHi - logLo) / float64(n-1)
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = math.Pow(10, logLo+step*float64(i))
	}
	levels[n-1] = hi
	return levels, nil
}

// objectKeys returns the top level keys of a JSON object in document order
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode levels: %w", err)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode levels: %w", err)
		}
		keys = append(keys, tok.(string))

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("decode levels: %w", err)
		}
	}
	return keys, nil
}
