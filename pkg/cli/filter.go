package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beam-cloud/hazardkit/pkg/compartment"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

// FilterResult is the JSON output of the filter command
type FilterResult struct {
	Source    string   `json:"source,omitempty"`
	Filenames []string `json:"filenames"`
	Count     int      `json:"count"`
}

func newFilterCmd(opts *globalOptions) *cobra.Command {
	var (
		mode     string
		query    types.Query
		patterns []string
		sorted   bool
	)

	cmd := &cobra.Command{
		Use:   "filter [filename...]",
		Short: "Select engine outputs by the fields of their names",
		Long: `Select engine outputs by the fields of their names.

Filenames given as arguments are filtered as is, otherwise the configured
source (--dir or --s3-bucket) is listed. Text fields match when any of the
given values is a substring of the field, seeds match exactly.`,
		Example: `  hazardkit filter --mode psha --type-filename curve --type-acc PGA,SA(0.1) --seed 14
  hazardkit filter --mode disaggregation --pattern Mag,Dist --dir outputs/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calcMode, err := types.ParseCalculationMode(mode)
			if err != nil {
				return err
			}
			if sorted && calcMode != types.CalculationModePSHA {
				return &types.ConfigurationError{Setting: "sort", Value: mode}
			}

			result := FilterResult{}
			names := args
			if len(names) == 0 {
				names, result.Source, err = opts.listOutputs(cmd.Context())
				if err != nil {
					return err
				}
			}

			kept, err := compartment.Filter(names, calcMode, compartment.Criteria{
				Query:                  query,
				DisaggregationPatterns: patterns,
			}, compartment.WithObserver(logDecision))
			if err != nil {
				return err
			}
			if sorted {
				if kept, err = compartment.SortByAcceleration(kept); err != nil {
					return err
				}
			}

			result.Filenames, result.Count = kept, len(kept)
			if PrintJSON(result) {
				return nil
			}
			if len(kept) == 0 {
				PrintWarning("No output matched")
				return nil
			}
			for _, name := range kept {
				PrintLine(name)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&mode, "mode", "m", "", "Calculation mode: psha or disaggregation")
	flags.StringSliceVar(&query.Startname, "startname", nil, "Accepted startnames (hazard, quantile)")
	flags.StringSliceVar(&query.TypeFilename, "type-filename", nil, "Accepted output kinds (curve, uhs, map)")
	flags.StringSliceVar(&query.TypeData, "type-data", nil, "Accepted data variants (mean, 0.05, rlz-001)")
	flags.StringSliceVar(&query.TypeAcc, "type-acc", nil, "Accepted acceleration thresholds (PGA, SA(0.1))")
	flags.IntSliceVar(&query.Seed, "seed", nil, "Accepted seeds")
	flags.StringSliceVar(&patterns, "pattern", nil, "Substrings a disaggregation filename must all contain")
	flags.BoolVar(&sorted, "sort", false, "Order psha outputs by acceleration threshold, dropping those without one")
	_ = cmd.MarkFlagRequired("mode")

	return cmd
}

// listOutputs lists the configured source and returns its location
func (o *globalOptions) listOutputs(ctx context.Context) ([]string, string, error) {
	src, err := o.openSource(ctx)
	if err != nil {
		return nil, "", err
	}
	names, err := src.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list %s: %w", src.Location(), err)
	}
	return names, src.Location(), nil
}
