// Package plots renders hazard curves, uniform hazard spectra and
// disaggregation matrices to PNG figures.
package plots

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/beam-cloud/hazardkit/pkg/hazard"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

const (
	defaultWidth       = 11 * vg.Inch
	defaultHeight      = 7 * vg.Inch
	defaultConcurrency = 4
)

var (
	meanColor     = color.RGBA{R: 220, A: 255}
	quantileColor = color.Black
	dashes        = []vg.Length{vg.Points(6), vg.Points(3)}
)

// Renderer draws figures from files of a source into a directory
type Renderer struct {
	src         sources.Source
	outDir      string
	width       vg.Length
	height      vg.Length
	concurrency int
}

// NewRenderer creates a renderer writing into cfg.OutputDir
func NewRenderer(src sources.Source, cfg types.PlotsConfig) *Renderer {
	r := &Renderer{
		src:         src,
		outDir:      cfg.OutputDir,
		width:       defaultWidth,
		height:      defaultHeight,
		concurrency: cfg.Concurrency,
	}
	if cfg.WidthInches > 0 {
		r.width = vg.Length(cfg.WidthInches) * vg.Inch
	}
	if cfg.HeightInches > 0 {
		r.height = vg.Length(cfg.HeightInches) * vg.Inch
	}
	if r.concurrency <= 0 {
		r.concurrency = defaultConcurrency
	}
	if r.outDir == "" {
		r.outDir = "."
	}
	return r
}

// OutputDir returns the directory figures are written to
func (r *Renderer) OutputDir() string {
	return r.outDir
}

// series is one line of a figure
type series struct {
	label  string
	points []hazard.Point
	color  color.Color
	dashed bool
}

// figure is a log-log line chart
type figure struct {
	name   string
	title  string
	xLabel string
	yLabel string
	lines  []series
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return "", fmt.Errorf("create plot directory: %w", err)
	}

	path := filepath.Join(r.outDir, name)
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	log.Info().Str("figure", path).Msg("rendered figure")
	return path, nil
}

func (r *Renderer) drawLines(f figure) (string, error) {
	p := plot.New()
	p.Title.Text = f.title
	p.X.Label.Text = f.xLabel
	p.Y.Label.Text = f.yLabel
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	drawn := 0
	for _, s := range f.lines {
		xys := positive(s.points)
		if len(xys) == 0 {
			log.Warn().Str("figure", f.name).Str("line", s.label).Msg("no positive values for log axes, line skipped")
			continue
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return "", fmt.Errorf("%s: line %s: %w", f.name, s.label, err)
		}
		line.LineStyle.Color = s.color
		line.LineStyle.Width = vg.Points(1.5)
		if s.dashed {
			line.LineStyle.Dashes = dashes
		}
		p.Add(line)
		p.Legend.Add(s.label, line)
		drawn++
	}
	if drawn == 0 {
		return "", fmt.Errorf("%s: nothing to draw", f.name)
	}

	return r.save(p, f.name)
}

// positive drops points a log scale cannot place
func positive(points []hazard.Point) plotter.XYs {
	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		if pt.X > 0 && pt.Y > 0 && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0) {
			xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
		}
	}
	return xys
}

// dataStyle colours a line by its data variant: mean in red, the 5% and
// 95% quantiles dashed, other quantiles solid black.
func dataStyle(typeData string) series {
	if typeData == "mean" {
		return series{label: typeData, color: meanColor}
	}
	return series{
		label:  "quantile " + typeData,
		color:  quantileColor,
		dashed: typeData == "0.05" || typeData == "0.95",
	}
}

func accelerationColor(i int) color.Color {
	return plotutil.Color(i)
}

// renderAll draws figures with at most r.concurrency in flight
func (r *Renderer) renderAll(ctx context.Context, jobs []func() (string, error)) ([]string, error) {
	paths := make([]string, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := job()
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
