package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beam-cloud/hazardkit/pkg/jobini"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

func newMetadataCmd(opts *globalOptions) *cobra.Command {
	var delimiter string

	cmd := &cobra.Command{
		Use:   "metadata [job.ini]",
		Short: "Show the metadata of a job file",
		Long: `Show the metadata of a job file.

The file is read from disk when it exists, otherwise from the configured
source. Without an argument plots.jobFile is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.config.Plots.JobFile
			if len(args) == 1 {
				path = args[0]
			}

			meta, err := opts.loadJob(cmd.Context(), path, jobini.WithDelimiter(delimiter))
			if err != nil {
				return err
			}
			if PrintJSON(meta) {
				return nil
			}
			printMetadata(path, meta)
			return nil
		},
	}

	cmd.Flags().StringVar(&delimiter, "delimiter", jobini.DefaultDelimiter, "Separator of list values such as sites and poes")
	return cmd
}

// loadJob reads a job file from disk, falling back to the output source
func (o *globalOptions) loadJob(ctx context.Context, path string, opts ...jobini.Option) (*types.JobMetadata, error) {
	if _, err := os.Stat(path); err == nil {
		return jobini.Read(path, opts...)
	}

	src, err := o.openSource(ctx)
	if err != nil {
		return nil, err
	}
	data, err := sources.ReadAll(ctx, src, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	return jobini.Load(data, opts...)
}

func printMetadata(path string, meta *types.JobMetadata) {
	PrintHeader("Job metadata " + DimStyle.Render(path))

	PrintKeyValue("Sites", strings.Join(meta.Geometry.Sites, " "))
	PrintKeyValue("Vs30", fmt.Sprint(meta.SiteParams.Vs30))
	PrintKeyValue("Investigation", fmt.Sprintf("%g years", meta.Calculation.InvestigationTime))
	PrintKeyValue("Max distance", fmt.Sprint(meta.Calculation.MaximumDistance))
	PrintKeyValue("Point distance", fmt.Sprint(meta.Calculation.PointsourceDistance))
	PrintKeyValue("Min magnitude", fmt.Sprint(meta.Calculation.MinimumMagnitude))
	PrintKeyValue("Output poes", strings.Join(meta.Output.Poes, ", "))
	PrintKeyValue("Quantiles", strings.Join(meta.Output.Quantiles, ", "))
	PrintKeyValue("Disagg poes", strings.Join(meta.Disaggregation.Poes, ", "))
	PrintKeyValue("Bins", fmt.Sprintf("mag %g, dist %g, coord %g, eps %d",
		meta.Disaggregation.MagBin, meta.Disaggregation.DistBin,
		meta.Disaggregation.CoordBin, meta.Disaggregation.EpsilonBins))

	PrintHeader("Intensity measure levels")
	for _, imt := range meta.Calculation.IMTs {
		PrintKeyValue(imt, formatFloats(meta.Calculation.IMTLevels[imt]))
	}
}
