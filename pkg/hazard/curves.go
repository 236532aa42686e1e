package hazard

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// curveFirstLevel is the index of the first poe-<level> column after lon, lat, depth
const curveFirstLevel = 3

// uhsFirstColumn is the index of the first {poe}~{imt} column after lon, lat
const uhsFirstColumn = 2

// Point is one plotted sample
type Point struct {
	X float64
	Y float64
}

// Curve is a hazard curve for one site: acceleration level against
// probability of exceedance.
type Curve struct {
	Meta   map[string]string
	Lon    string
	Lat    string
	Points []Point
}

// ReadCurve reads the first site of a hazard_curve export
func ReadCurve(r io.Reader) (*Curve, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("hazard curve: no site rows")
	}
	if len(t.Columns) <= curveFirstLevel {
		return nil, fmt.Errorf("hazard curve: expected poe columns after lon, lat, depth")
	}

	c := &Curve{Meta: t.Meta, Lon: t.Rows[0][0], Lat: t.Rows[0][1]}
	for col := curveFirstLevel; col < len(t.Columns); col++ {
		level, err := PoeValue(t.Columns[col], CurveSep)
		if err != nil {
			return nil, fmt.Errorf("hazard curve: %w", err)
		}
		poe, err := t.Float(0, col)
		if err != nil {
			return nil, fmt.Errorf("hazard curve: %w", err)
		}
		c.Points = append(c.Points, Point{X: level, Y: poe})
	}
	return c, nil
}

// Spectrum is a uniform hazard spectrum for one poe: frequency against
// acceleration, sorted by frequency.
type Spectrum struct {
	Poe    float64
	Label  string
	Points []Point
}

// UHS holds every spectrum of a hazard_uhs export in column order
type UHS struct {
	Meta    map[string]string
	Spectra []*Spectrum
}

// ReadUHS reads the first site of a hazard_uhs export
func ReadUHS(r io.Reader) (*UHS, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("uniform hazard spectra: no site rows")
	}

	u := &UHS{Meta: t.Meta}
	byLabel := map[string]*Spectrum{}
	for col := uhsFirstColumn; col < len(t.Columns); col++ {
		name := t.Columns[col]
		label, _, _ := strings.Cut(name, SpectrumSep)

		poe, err := PoeValue(name, SpectrumSep)
		if err != nil {
			return nil, fmt.Errorf("uniform hazard spectra: %w", err)
		}
		freq, err := ColumnFrequency(name)
		if err != nil {
			return nil, fmt.Errorf("uniform hazard spectra: %w", err)
		}
		acc, err := t.Float(0, col)
		if err != nil {
			return nil, fmt.Errorf("uniform hazard spectra: %w", err)
		}

		s, ok := byLabel[label]
		if !ok {
			s = &Spectrum{Poe: poe, Label: label}
			byLabel[label] = s
			u.Spectra = append(u.Spectra, s)
		}
		s.Points = append(s.Points, Point{X: freq, Y: acc})
	}

	for _, s := range u.Spectra {
		sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].X < s.Points[j].X })
	}
	return u, nil
}

// Spectrum returns the spectrum of the given poe
func (u *UHS) Spectrum(poe float64) (*Spectrum, bool) {
	for _, s := range u.Spectra {
		if SamePoe(s.Poe, poe) {
			return s, true
		}
	}
	return nil, false
}
