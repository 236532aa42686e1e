// Package hazard reads the tabular outputs of the hazard engine: hazard
// curves, uniform hazard spectra and disaggregation matrices.
package hazard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// CurveSep separates "poe" from the acceleration level in curve columns (poe-0.005)
	CurveSep = "-"
	// SpectrumSep separates the poe from the IMT in spectrum columns (0.1~SA(0.2))
	SpectrumSep = "~"

	pgaFrequency = 100.0
)

// PoeValue extracts the number carried by a column name. With CurveSep the
// value follows the separator, with SpectrumSep it precedes it.
func PoeValue(column, sep string) (float64, error) {
	var raw string
	switch sep {
	case CurveSep:
		_, after, ok := strings.Cut(column, sep)
		if !ok {
			return 0, fmt.Errorf("column %q: no %q separator", column, sep)
		}
		raw = after
	case SpectrumSep:
		raw, _, _ = strings.Cut(column, sep)
	default:
		return 0, fmt.Errorf("column %q: unsupported separator %q", column, sep)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", column, err)
	}
	return v, nil
}

// EquivalentFrequency maps an intensity measure type to a frequency in Hz:
// PGA is plotted at 100 Hz, SA(T) at 1/T.
func EquivalentFrequency(imt string) (float64, error) {
	if imt == "PGA" {
		return pgaFrequency, nil
	}

	period, ok := strings.CutPrefix(imt, "SA(")
	if !ok {
		return 0, fmt.Errorf("intensity measure %q: expected PGA or SA(period)", imt)
	}
	period, ok = strings.CutSuffix(period, ")")
	if !ok {
		return 0, fmt.Errorf("intensity measure %q: unterminated period", imt)
	}

	t, err := strconv.ParseFloat(period, 64)
	if err != nil {
		return 0, fmt.Errorf("intensity measure %q: %w", imt, err)
	}
	if t <= 0 {
		return 0, fmt.Errorf("intensity measure %q: period must be positive", imt)
	}
	return 1 / t, nil
}

// ColumnFrequency returns the frequency of a spectrum column "{poe}~{imt}"
func ColumnFrequency(column string) (float64, error) {
	_, imt, ok := strings.Cut(column, SpectrumSep)
	if !ok {
		return 0, fmt.Errorf("column %q: no %q separator", column, SpectrumSep)
	}
	return EquivalentFrequency(imt)
}

// ReturnPeriod converts a probability of exceedance into years, the way the
// plots title their figures (1/poe).
func ReturnPeriod(poe float64) float64 {
	return 1 / poe
}

// SamePoe compares poes written with different precision ("0.1" and "0.10")
func SamePoe(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}
