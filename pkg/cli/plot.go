package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/beam-cloud/hazardkit/pkg/compartment"
	"github.com/beam-cloud/hazardkit/pkg/plots"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

const defaultDisaggPattern = "Mag_Dist"

type plotOptions struct {
	*globalOptions
	outDir  string
	jobFile string
	seeds   []int
}

func newPlotCmd(opts *globalOptions) *cobra.Command {
	p := &plotOptions{globalOptions: opts}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render hazard curves, spectra and disaggregation figures",
		Long: `Render hazard curves, spectra and disaggregation figures.

Every run writes a manifest.yaml next to its figures, naming the inputs
and the figures it produced.`,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&p.outDir, "out", "o", "", "Directory figures are written to (default plots.outputDir)")
	flags.StringVar(&p.jobFile, "job", "", "Job file of the run (default plots.jobFile)")
	flags.IntSliceVar(&p.seeds, "seed", nil, "Only plot outputs of these seeds")

	cmd.AddCommand(p.curvesCmd())
	cmd.AddCommand(p.uhsCmd())
	cmd.AddCommand(p.disaggCmd())
	cmd.AddCommand(p.allCmd())

	return cmd
}

func (p *plotOptions) curvesCmd() *cobra.Command {
	var kind, acc string

	cmd := &cobra.Command{
		Use:   "curves [file...]",
		Short: "Plot hazard curves",
		Example: `  hazardkit plot curves --dir outputs/
  hazardkit plot curves --kind all_type_data --type-acc "SA(0.1)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			curveKind, err := plots.ParseCurveKind(kind)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := p.start(ctx, false)
			if err != nil {
				return err
			}
			files := args
			if len(files) == 0 {
				if files, err = curveFiles(s.listing, curveKind, acc, p.seeds); err != nil {
					return err
				}
			}
			if err := s.curves(ctx, files, curveKind); err != nil {
				return err
			}
			return s.finish()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(plots.AllAccelerations), "all_type_acc (one line per threshold) or all_type_data (one line per variant)")
	cmd.Flags().StringVar(&acc, "type-acc", "", "Acceleration threshold of an all_type_data figure")
	return cmd
}

func (p *plotOptions) uhsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uhs [file...]",
		Short: "Plot uniform hazard spectra, one figure per output poe",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := p.start(ctx, true)
			if err != nil {
				return err
			}
			files := args
			if len(files) == 0 {
				if files, err = uhsFiles(s.listing, p.seeds); err != nil {
					return err
				}
			}
			if err := s.spectra(ctx, files); err != nil {
				return err
			}
			return s.finish()
		},
	}
}

func (p *plotOptions) disaggCmd() *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "disagg [file...]",
		Short: "Plot magnitude by distance disaggregation matrices",
		Long: `Plot magnitude by distance disaggregation matrices, one figure per
disaggregation poe and intensity measure type. When several files are
plotted each gets its own subdirectory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := p.start(ctx, true)
			if err != nil {
				return err
			}
			files := args
			if len(files) == 0 {
				if files, err = disaggFiles(s.listing, patterns, p.seeds); err != nil {
					return err
				}
			}
			if err := s.disagg(ctx, files); err != nil {
				return err
			}
			return s.finish()
		},
	}

	cmd.Flags().StringSliceVar(&patterns, "pattern", []string{defaultDisaggPattern}, "Substrings the disaggregation filenames must all contain")
	return cmd
}

func (p *plotOptions) allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Plot hazard curves, spectra and disaggregation of the source",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := p.start(ctx, true)
			if err != nil {
				return err
			}

			curves, curvesErr := curveFiles(s.listing, plots.AllAccelerations, "", p.seeds)
			spectra, spectraErr := uhsFiles(s.listing, p.seeds)
			disagg, disaggErr := disaggFiles(s.listing, []string{defaultDisaggPattern}, p.seeds)
			if curvesErr != nil && spectraErr != nil && disaggErr != nil {
				return fmt.Errorf("nothing to plot in %s: %w", s.src.Location(), sources.ErrNotFound)
			}

			g, ctx := errgroup.WithContext(ctx)
			if curvesErr == nil {
				g.Go(func() error { return s.curves(ctx, curves, plots.AllAccelerations) })
			} else {
				log.Warn().Err(curvesErr).Msg("hazard curves skipped")
			}
			if spectraErr == nil {
				g.Go(func() error { return s.spectra(ctx, spectra) })
			} else {
				log.Warn().Err(spectraErr).Msg("uniform hazard spectra skipped")
			}
			if disaggErr == nil {
				g.Go(func() error { return s.disagg(ctx, disagg) })
			} else {
				log.Warn().Err(disaggErr).Msg("disaggregation skipped")
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return s.finish()
		},
	}
}

// plotSession is one plot run: a source, its listing, the job metadata and
// the manifest the figures are recorded in.
type plotSession struct {
	src     sources.Source
	listing []string
	cfg     types.PlotsConfig
	meta    *types.JobMetadata

	mu       sync.Mutex
	manifest *plots.Manifest
}

func (p *plotOptions) start(ctx context.Context, needJob bool) (*plotSession, error) {
	cfg := p.config.Plots
	if p.outDir != "" {
		cfg.OutputDir = p.outDir
	}
	jobFile := p.jobFile
	if jobFile == "" {
		jobFile = cfg.JobFile
	}

	src, err := p.openSource(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", src.Location(), err)
	}

	s := &plotSession{
		src:      src,
		listing:  listing,
		cfg:      cfg,
		manifest: plots.NewManifest(src.Location(), ""),
	}
	if needJob {
		if s.meta, err = p.loadJob(ctx, jobFile); err != nil {
			return nil, err
		}
		s.manifest.JobFile = jobFile
	}
	return s, nil
}

func (s *plotSession) renderer(dir string) *plots.Renderer {
	cfg := s.cfg
	cfg.OutputDir = dir
	return plots.NewRenderer(s.src, cfg)
}

func (s *plotSession) record(inputs, figures []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest.Inputs = append(s.manifest.Inputs, inputs...)
	s.manifest.Figures = append(s.manifest.Figures, figures...)
}

func (s *plotSession) curves(ctx context.Context, files []string, kind plots.CurveKind) error {
	figure, err := s.renderer(s.cfg.OutputDir).HazardCurves(ctx, files, kind)
	if err != nil {
		return err
	}
	s.record(files, []string{figure})
	return nil
}

func (s *plotSession) spectra(ctx context.Context, files []string) error {
	figures, err := s.renderer(s.cfg.OutputDir).UniformHazardSpectra(ctx, files, s.meta)
	if err != nil {
		return err
	}
	s.record(files, figures)
	return nil
}

func (s *plotSession) disagg(ctx context.Context, files []string) error {
	for _, file := range files {
		dir := s.cfg.OutputDir
		if len(files) > 1 {
			dir = filepath.Join(dir, strings.TrimSuffix(file, filepath.Ext(file)))
		}
		figures, err := s.renderer(dir).DisaggregationHistogram(ctx, file, s.meta)
		if err != nil {
			return err
		}
		s.record([]string{file}, figures)
	}
	return nil
}

// finish writes the manifest and reports the figures
func (s *plotSession) finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slices.Sort(s.manifest.Inputs)
	slices.Sort(s.manifest.Figures)
	path, err := s.manifest.Write(s.cfg.OutputDir)
	if err != nil {
		return err
	}

	if PrintJSON(s.manifest) {
		return nil
	}
	PrintSuccessf("Rendered %d figures from %d files", len(s.manifest.Figures), len(s.manifest.Inputs))
	for _, figure := range s.manifest.Figures {
		PrintBullet(figure)
	}
	PrintKeyValue("Manifest", path)
	return nil
}

// curveFiles picks the hazard curves of one figure from a listing. An
// all_type_acc figure takes the mean curve of every threshold in display
// order, an all_type_data figure every mean and quantile curve of acc.
func curveFiles(listing []string, kind plots.CurveKind, acc string, seeds []int) ([]string, error) {
	query := types.Query{TypeFilename: []string{"curve"}, Seed: seeds}

	switch kind {
	case plots.AllAccelerations:
		query.Startname = []string{"hazard"}
		query.TypeData = []string{"mean"}
	case plots.AllData:
		if acc == "" {
			return nil, &types.ConfigurationError{Setting: "type_acc", Value: acc}
		}
		query.TypeAcc = []string{acc}
	}

	kept, err := compartment.Filter(listing, types.CalculationModePSHA, compartment.Criteria{Query: query}, compartment.WithObserver(logDecision))
	if err != nil {
		return nil, err
	}

	if kind == plots.AllAccelerations {
		kept, err = compartment.SortByAcceleration(kept)
		if err != nil {
			return nil, err
		}
	} else {
		// type_acc matches by substring, SA(0.1) would also take SA(0.15)
		kept = slices.DeleteFunc(kept, func(name string) bool {
			rec, _ := compartment.Parse(name)
			return rec.Acc() != acc || isRealization(rec.TypeData)
		})
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("hazard curves: %w", sources.ErrNotFound)
	}
	return kept, nil
}

// uhsFiles picks the mean and quantile spectra of a listing
func uhsFiles(listing []string, seeds []int) ([]string, error) {
	kept, err := compartment.Filter(listing, types.CalculationModePSHA, compartment.Criteria{
		Query: types.Query{TypeFilename: []string{"uhs"}, Seed: seeds},
	}, compartment.WithObserver(logDecision))
	if err != nil {
		return nil, err
	}

	kept = slices.DeleteFunc(kept, func(name string) bool {
		rec, _ := compartment.Parse(name)
		return isRealization(rec.TypeData)
	})
	if len(kept) == 0 {
		return nil, fmt.Errorf("uniform hazard spectra: %w", sources.ErrNotFound)
	}
	return kept, nil
}

// disaggFiles picks the disaggregation files holding every pattern
func disaggFiles(listing []string, patterns []string, seeds []int) ([]string, error) {
	kept, err := compartment.Filter(listing, types.CalculationModeDisaggregation, compartment.Criteria{
		DisaggregationPatterns: patterns,
	}, compartment.WithObserver(logDecision))
	if err != nil {
		return nil, err
	}

	if len(seeds) > 0 {
		kept = slices.DeleteFunc(kept, func(name string) bool {
			seed, err := compartment.SeedOf([]string{name})
			return err != nil || !slices.Contains(seeds, seed)
		})
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("disaggregation: %w", sources.ErrNotFound)
	}
	return kept, nil
}

func isRealization(typeData string) bool {
	return strings.HasPrefix(typeData, "rlz")
}
