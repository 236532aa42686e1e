package plots

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"

	"github.com/beam-cloud/hazardkit/pkg/hazard"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

const heatColors = 24

// DisaggregationHistogram draws a magnitude by distance heat map for each
// disaggregation poe and intensity measure type of a Mag_Dist(_Eps) file.
func (r *Renderer) DisaggregationHistogram(ctx context.Context, file string, meta *types.JobMetadata) ([]string, error) {
	rc, err := r.src.Open(ctx, file)
	if err != nil {
		return nil, err
	}
	d, err := hazard.ReadDisagg(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	imts := meta.Calculation.IMTs
	if len(imts) == 0 {
		imts = d.IMTs()
	}

	var jobs []func() (string, error)
	for _, raw := range meta.Disaggregation.Poes {
		poe, err := parsePoe(raw)
		if err != nil {
			return nil, err
		}
		for _, imt := range imts {
			grid, err := d.Grid(imt, poe)
			if err != nil {
				log.Warn().Str("file", file).Str("imt", imt).Str("poe", raw).Msg("no disaggregation bins, figure skipped")
				continue
			}
			if grid.Max() <= 0 {
				log.Warn().Str("file", file).Str("imt", imt).Str("poe", raw).Msg("zero contributions, figure skipped")
				continue
			}

			name := fmt.Sprintf("disagg_Mag_Dist_hist3Dplot_%s_%s.png", raw, imt)
			cells := padGrid(grid, meta.Disaggregation.MagBin, meta.Disaggregation.DistBin)
			jobs = append(jobs, func() (string, error) {
				return r.drawHeatMap(name, imt, poe, cells)
			})
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%s: no disaggregation figure to draw", file)
	}

	return r.renderAll(ctx, jobs)
}

func (r *Renderer) drawHeatMap(name, imt string, poe float64, g *hazard.Grid) (string, error) {
	freq, err := hazard.EquivalentFrequency(imt)
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Return period: %d years, F = %.2f Hz\nContribution by magnitude and distance (max %.3g)",
		returnPeriodYears(poe), freq, g.Max())
	p.X.Label.Text = "Magnitude"
	p.Y.Label.Text = "Distance [km]"

	hm := plotter.NewHeatMap(gridXYZ{g}, palette.Heat(heatColors, 1))
	hm.Min = 0
	hm.Max = g.Max()
	p.Add(hm)

	return r.save(p, name)
}

// padGrid adds an empty bin on an axis holding a single value, since a heat
// map needs two centres per axis to size its cells.
func padGrid(g *hazard.Grid, magBin, distBin float64) *hazard.Grid {
	if magBin <= 0 {
		magBin = 1
	}
	if distBin <= 0 {
		distBin = 1
	}

	out := &hazard.Grid{Mags: slices.Clone(g.Mags), Dists: slices.Clone(g.Dists)}
	for _, row := range g.Values {
		out.Values = append(out.Values, slices.Clone(row))
	}

	if len(out.Mags) == 1 {
		out.Mags = append(out.Mags, out.Mags[0]+magBin)
		for i := range out.Values {
			out.Values[i] = append(out.Values[i], 0)
		}
	}
	if len(out.Dists) == 1 {
		out.Dists = append(out.Dists, out.Dists[0]+distBin)
		out.Values = append(out.Values, make([]float64, len(out.Mags)))
	}
	return out
}

type gridXYZ struct {
	g *hazard.Grid
}

func (x gridXYZ) Dims() (c, r int)   { return len(x.g.Mags), len(x.g.Dists) }
func (x gridXYZ) Z(c, r int) float64 { return x.g.Values[r][c] }
func (x gridXYZ) X(c int) float64    { return x.g.Mags[c] }
func (x gridXYZ) Y(r int) float64    { return x.g.Dists[r] }

func parsePoe(raw string) (float64, error) {
	poe, err := strconv.ParseFloat(raw, 64)
	if err != nil || poe <= 0 || poe >= 1 {
		return 0, &types.ConfigurationError{Setting: "poe", Value: raw}
	}
	return poe, nil
}
