package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beam-cloud/hazardkit/pkg/compartment"
)

func newParseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <filename>...",
		Short: "Split output filenames into their fields",
		Example: `  hazardkit parse hazard_curve-mean-PGA_14.csv
  hazardkit parse --json quantile_uhs-0.05_14.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := compartment.ParseAll(args)
			if err != nil {
				return err
			}

			if PrintJSON(records) {
				return nil
			}

			table := NewTable("FILENAME", "STARTNAME", "TYPE_FILENAME", "TYPE_DATA", "TYPE_ACC", "SEED")
			for i, rec := range records {
				acc := "-"
				if rec.HasTypeAcc() {
					acc = rec.Acc()
				}
				table.AddRow(args[i], rec.Startname, rec.TypeFilename, rec.TypeData, acc, fmt.Sprint(rec.Seed))
			}
			table.Print()
			return nil
		},
	}
}
