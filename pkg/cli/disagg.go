package cli

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/beam-cloud/hazardkit/pkg/hazard"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

func newDisaggCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disagg",
		Short: "Inspect disaggregation outputs",
	}
	cmd.AddCommand(newDisaggSummaryCmd(opts))
	return cmd
}

func newDisaggSummaryCmd(opts *globalOptions) *cobra.Command {
	var (
		imt     string
		poe     string
		invTime float64
	)

	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Print the modal and mean magnitude, distance and epsilon",
		Long: `Print the modal and mean magnitude, distance and epsilon of a
disaggregation file, for every intensity measure type and poe it holds
unless --imt or --poe narrow the selection.`,
		Example: `  hazardkit disagg summary Mag_Dist_Eps-0_14.csv --dir outputs/
  hazardkit disagg summary Mag_Dist_Eps-0_14.csv --imt PGA --poe 0.1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file := args[0]

			src, err := opts.openSource(ctx)
			if err != nil {
				return err
			}
			rc, err := src.Open(ctx, file)
			if err != nil {
				return err
			}
			d, err := hazard.ReadDisagg(rc)
			rc.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			invT := invTime
			if invT <= 0 {
				invT, _ = d.InvestigationTime()
			}

			imts := d.IMTs()
			if imt != "" {
				imts = []string{imt}
			}
			poes := d.Poes()
			if poe != "" {
				value, err := strconv.ParseFloat(poe, 64)
				if err != nil {
					return &types.ConfigurationError{Setting: "poe", Value: poe}
				}
				poes = []float64{value}
			}

			summaries := make([]*hazard.Summary, 0, len(imts)*len(poes))
			explicit := imt != "" && poe != ""
			for _, m := range imts {
				for _, p := range poes {
					if _, err := d.Grid(m, p); err != nil && !explicit {
						log.Debug().Str("imt", m).Float64("poe", p).Msg("no bins, pair skipped")
						continue
					}
					summary, err := d.Summarize(m, p, invT)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					summaries = append(summaries, summary)
				}
			}

			if PrintJSON(summaries) {
				return nil
			}

			table := NewTable("IMT", "POE", "MODE M", "MODE R", "MODE EPS", "MEAN M", "MEAN R", "MEAN EPS")
			for _, s := range summaries {
				table.AddRow(s.IMT, fmt.Sprint(s.Poe),
					formatFloat(s.Mode.Mag), formatFloat(s.Mode.Dist), formatFloat(s.Mode.Eps),
					formatFloat(s.Mean.Mag), formatFloat(s.Mean.Dist), formatFloat(s.Mean.Eps))
			}
			table.Print()
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&imt, "imt", "", "Intensity measure type, e.g. PGA or SA(0.1)")
	flags.StringVar(&poe, "poe", "", "Probability of exceedance of the disaggregation")
	flags.Float64Var(&invTime, "investigation-time", 0, "Investigation time in years (default from the file header)")
	return cmd
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
