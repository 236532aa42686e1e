package plots

import (
	"context"
	"fmt"
	"math"

	"github.com/beam-cloud/hazardkit/pkg/compartment"
	"github.com/beam-cloud/hazardkit/pkg/hazard"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

// CurveKind selects how hazard curves are grouped on a figure
type CurveKind string

const (
	// AllAccelerations draws one line per acceleration threshold
	AllAccelerations CurveKind = "all_type_acc"
	// AllData draws every data variant (mean, quantiles) of one threshold
	AllData CurveKind = "all_type_data"
)

// ParseCurveKind accepts the figure kinds by name
func ParseCurveKind(s string) (CurveKind, error) {
	switch CurveKind(s) {
	case AllAccelerations, AllData:
		return CurveKind(s), nil
	case "acc", "accelerations":
		return AllAccelerations, nil
	case "data":
		return AllData, nil
	}
	return "", &types.ConfigurationError{Setting: "curve kind", Value: s}
}

// HazardCurves draws hazard_curve files on a single log-log figure and
// returns its path.
func (r *Renderer) HazardCurves(ctx context.Context, files []string, kind CurveKind) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("hazard curves: no files")
	}
	if _, err := ParseCurveKind(string(kind)); err != nil {
		return "", err
	}

	f := figure{
		name:   fmt.Sprintf("hazard_curve_%s_plot.png", kind),
		title:  "Annual probability of exceedance for each acceleration threshold",
		xLabel: "Acc. [g]",
		yLabel: "Annual probability of exceedance",
	}

	for i, name := range files {
		rec, err := compartment.Parse(name)
		if err != nil {
			return "", err
		}
		curve, err := readCurve(ctx, r.src, name)
		if err != nil {
			return "", err
		}

		var s series
		if kind == AllAccelerations {
			s = series{label: rec.Acc(), color: accelerationColor(i)}
		} else {
			s = dataStyle(rec.TypeData)
			if i == 0 {
				f.name = fmt.Sprintf("hazard_curve_%s_%s_plot.png", kind, rec.Acc())
				f.title = "Annual probability of exceedance, " + rec.Acc()
			}
		}
		s.points = curve.Points
		f.lines = append(f.lines, s)
	}

	return r.drawLines(f)
}

// UniformHazardSpectra draws one figure per output poe with a line per
// hazard_uhs file.
func (r *Renderer) UniformHazardSpectra(ctx context.Context, files []string, meta *types.JobMetadata) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("uniform hazard spectra: no files")
	}
	if len(meta.Output.Poes) == 0 {
		return nil, fmt.Errorf("uniform hazard spectra: job has no output poes")
	}

	spectra := make([]*hazard.UHS, len(files))
	styles := make([]series, len(files))
	for i, name := range files {
		rec, err := compartment.Parse(name)
		if err != nil {
			return nil, err
		}
		rc, err := r.src.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		spectra[i], err = hazard.ReadUHS(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		styles[i] = dataStyle(rec.TypeData)
	}

	var jobs []func() (string, error)
	for _, raw := range meta.Output.Poes {
		poe, err := parsePoe(raw)
		if err != nil {
			return nil, err
		}

		years := returnPeriodYears(poe)
		f := figure{
			name:   fmt.Sprintf("hazard_uhs_%d_plot.png", years),
			title:  fmt.Sprintf("Uniform hazard spectra, %d years", years),
			xLabel: "Frequency [Hz]",
			yLabel: "Acceleration [g]",
		}
		for i, u := range spectra {
			spectrum, ok := u.Spectrum(poe)
			if !ok {
				return nil, fmt.Errorf("%s: no spectrum for poe %s", files[i], raw)
			}
			s := styles[i]
			s.points = spectrum.Points
			f.lines = append(f.lines, s)
		}
		jobs = append(jobs, func() (string, error) { return r.drawLines(f) })
	}

	return r.renderAll(ctx, jobs)
}

func readCurve(ctx context.Context, src sources.Source, name string) (*hazard.Curve, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	curve, err := hazard.ReadCurve(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return curve, nil
}

func returnPeriodYears(poe float64) int {
	return int(math.Round(hazard.ReturnPeriod(poe)))
}
