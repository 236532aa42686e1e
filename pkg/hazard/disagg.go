package hazard

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Bin is one cell of a disaggregation matrix
type Bin struct {
	IMT   string  `json:"imt"`
	Mag   float64 `json:"mag"`
	Dist  float64 `json:"dist"`
	Eps   float64 `json:"eps"`
	Poe   float64 `json:"poe"`
	Value float64 `json:"value"`
}

// Disagg is a Mag_Dist or Mag_Dist_Eps export
type Disagg struct {
	Meta map[string]string
	// Column holds the name of the value column (rlz<N>, mean, ...)
	Column string
	Bins   []Bin
}

var disaggKnown = []string{"imt", "mag", "dist", "eps", "poe", "lon", "lat"}

// ReadDisagg reads a disaggregation export. imt, mag, dist and poe columns
// are required; eps is optional. The last column not in that set holds the
// contributions.
func ReadDisagg(r io.Reader) (*Disagg, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}

	idx := map[string]int{}
	for _, name := range disaggKnown {
		idx[name] = t.Column(name)
	}
	for _, name := range []string{"imt", "mag", "dist", "poe"} {
		if idx[name] < 0 {
			return nil, fmt.Errorf("disaggregation: missing %q column", name)
		}
	}

	value := -1
	for i := len(t.Columns) - 1; i >= 0; i-- {
		if !slices.Contains(disaggKnown, strings.ToLower(t.Columns[i])) {
			value = i
			break
		}
	}
	if value < 0 {
		return nil, fmt.Errorf("disaggregation: no contribution column")
	}

	d := &Disagg{Meta: t.Meta, Column: t.Columns[value], Bins: make([]Bin, 0, len(t.Rows))}
	for row := range t.Rows {
		if len(t.Rows[row]) < len(t.Columns) {
			return nil, fmt.Errorf("disaggregation: row %d has %d of %d columns", row, len(t.Rows[row]), len(t.Columns))
		}
		b := Bin{IMT: t.Rows[row][idx["imt"]]}
		fields := []struct {
			col int
			dst *float64
		}{
			{idx["mag"], &b.Mag},
			{idx["dist"], &b.Dist},
			{idx["eps"], &b.Eps},
			{idx["poe"], &b.Poe},
			{value, &b.Value},
		}
		for _, f := range fields {
			if f.col < 0 {
				continue
			}
			if *f.dst, err = t.Float(row, f.col); err != nil {
				return nil, fmt.Errorf("disaggregation: %w", err)
			}
		}
		d.Bins = append(d.Bins, b)
	}
	return d, nil
}

// InvestigationTime returns the investigation_time recorded in the header
func (d *Disagg) InvestigationTime() (float64, bool) {
	raw, ok := d.Meta["investigation_time"]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

// IMTs lists the intensity measure types in first-seen order
func (d *Disagg) IMTs() []string {
	var imts []string
	for _, b := range d.Bins {
		if !slices.Contains(imts, b.IMT) {
			imts = append(imts, b.IMT)
		}
	}
	return imts
}

// Poes lists the poes in first-seen order
func (d *Disagg) Poes() []float64 {
	var poes []float64
	for _, b := range d.Bins {
		if !slices.ContainsFunc(poes, func(p float64) bool { return SamePoe(p, b.Poe) }) {
			poes = append(poes, b.Poe)
		}
	}
	return poes
}

func (d *Disagg) selection(imt string, poe float64) []Bin {
	var bins []Bin
	for _, b := range d.Bins {
		if b.IMT == imt && SamePoe(b.Poe, poe) {
			bins = append(bins, b)
		}
	}
	return bins
}

// Grid is a magnitude by distance matrix, summed over epsilon.
// Values is indexed [dist][mag].
type Grid struct {
	Mags   []float64
	Dists  []float64
	Values [][]float64
}

// Grid collapses the bins of one (imt, poe) pair into a magnitude by
// distance matrix.
func (d *Disagg) Grid(imt string, poe float64) (*Grid, error) {
	bins := d.selection(imt, poe)
	if len(bins) == 0 {
		return nil, fmt.Errorf("disaggregation: no bins for %s at poe %g", imt, poe)
	}

	g := &Grid{}
	for _, b := range bins {
		if !slices.Contains(g.Mags, b.Mag) {
			g.Mags = append(g.Mags, b.Mag)
		}
		if !slices.Contains(g.Dists, b.Dist) {
			g.Dists = append(g.Dists, b.Dist)
		}
	}
	slices.Sort(g.Mags)
	slices.Sort(g.Dists)

	g.Values = make([][]float64, len(g.Dists))
	for i := range g.Values {
		g.Values[i] = make([]float64, len(g.Mags))
	}
	for _, b := range bins {
		r, _ := slices.BinarySearch(g.Dists, b.Dist)
		c, _ := slices.BinarySearch(g.Mags, b.Mag)
		g.Values[r][c] += b.Value
	}
	return g, nil
}

// Max returns the largest cell
func (g *Grid) Max() float64 {
	m := 0.0
	for _, row := range g.Values {
		for _, v := range row {
			m = math.Max(m, v)
		}
	}
	return m
}

// Scenario is a magnitude, distance and epsilon triple
type Scenario struct {
	Mag  float64 `json:"mag"`
	Dist float64 `json:"dist"`
	Eps  float64 `json:"eps"`
}

// Summary is the controlling scenario of a disaggregation
type Summary struct {
	IMT  string   `json:"imt"`
	Poe  float64  `json:"poe"`
	Mode Scenario `json:"mode"`
	Mean Scenario `json:"mean"`
}

// Summarize reduces the bins of one (imt, poe) pair to their modal and mean
// scenario. Contributions are annualised with -ln(1-p)/investigationTime
// when investigationTime is positive, then normalised.
func (d *Disagg) Summarize(imt string, poe, investigationTime float64) (*Summary, error) {
	bins := d.selection(imt, poe)
	if len(bins) == 0 {
		return nil, fmt.Errorf("disaggregation: no bins for %s at poe %g", imt, poe)
	}

	weights := make([]float64, len(bins))
	total := 0.0
	for i, b := range bins {
		if b.Value < 0 || b.Value >= 1 {
			return nil, fmt.Errorf("disaggregation: contribution %g outside [0, 1)", b.Value)
		}
		w := b.Value
		if investigationTime > 0 {
			w = -math.Log1p(-b.Value) / investigationTime
		}
		weights[i] = w
		total += w
	}
	if total == 0 {
		return nil, fmt.Errorf("disaggregation: %s at poe %g has no contributions", imt, poe)
	}

	s := &Summary{IMT: imt, Poe: poe}
	best := -1.0
	for i, b := range bins {
		w := weights[i] / total
		s.Mean.Mag += w * b.Mag
		s.Mean.Dist += w * b.Dist
		s.Mean.Eps += w * b.Eps
		if w > best {
			best = w
			s.Mode = Scenario{Mag: b.Mag, Dist: b.Dist, Eps: b.Eps}
		}
	}
	return s, nil
}
