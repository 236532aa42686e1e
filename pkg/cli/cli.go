package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/beam-cloud/hazardkit/pkg/common"
	"github.com/beam-cloud/hazardkit/pkg/compartment"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

// Version is injected at compile time via ldflags
var Version = "dev"

// Custom help template with styled output
var helpTemplate = `{{with .Long}}{{. | trim}}

{{end}}{{if .HasAvailableSubCommands}}` + `{{.CommandPath}}` + ` ` + `<command>` + `

{{end}}{{if .HasAvailableSubCommands}}Commands:
{{range .Commands}}{{if .IsAvailableCommand}}  {{rpad .Name .NamePadding }}  {{.Short}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}
`

// globalOptions holds the persistent flags and the configuration they
// resolve to. Every command reads its settings from here.
type globalOptions struct {
	configPath string
	jsonOutput bool
	verbose    bool
	dir        string
	s3Bucket   string
	s3Prefix   string

	config types.AppConfig
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "hazardkit",
		Short: "Post-process seismic hazard engine outputs",
		Long: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("hazardkit") + ` - Post-process seismic hazard engine outputs

Select hazard curves, uniform hazard spectra and disaggregation files by
their names, read the job metadata and render figures.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			SetJSONOutput(opts.jsonOutput)
			return opts.load()
		},
	}

	rootCmd.SetHelpTemplate(helpTemplate)
	rootCmd.SetVersionTemplate(fmt.Sprintf("  %s version %s\n", BrandStyle.Render("hazardkit"), Version))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", getEnv(common.ConfigPathEnv, ""), "Config file (yaml or json)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log filter decisions and other debug messages")
	flags.StringVar(&opts.dir, "dir", getEnv("HAZARDKIT_DIR", ""), "Directory holding the engine outputs")
	flags.StringVar(&opts.s3Bucket, "s3-bucket", getEnv("HAZARDKIT_S3_BUCKET", ""), "Read the outputs from this S3 bucket")
	flags.StringVar(&opts.s3Prefix, "s3-prefix", getEnv("HAZARDKIT_S3_PREFIX", ""), "Key prefix of the outputs in the S3 bucket")

	rootCmd.AddCommand(newParseCmd(opts))
	rootCmd.AddCommand(newFilterCmd(opts))
	rootCmd.AddCommand(newMetadataCmd(opts))
	rootCmd.AddCommand(newPlotCmd(opts))
	rootCmd.AddCommand(newDisaggCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		PrintFormattedError(ErrorTitle(err), err)
	}
	return err
}

// load resolves the configuration: defaults, config file, then flags
func (o *globalOptions) load() error {
	cm, err := common.NewConfigManager[types.AppConfig](common.WithConfigPath(o.configPath))
	if err != nil {
		return err
	}

	overrides := map[string]interface{}{}
	switch {
	case o.s3Bucket != "":
		overrides["source.kind"] = types.SourceS3
		overrides["source.s3.bucket"] = o.s3Bucket
	case o.dir != "":
		overrides["source.kind"] = types.SourceLocal
		overrides["source.dir"] = o.dir
	}
	if o.s3Prefix != "" {
		overrides["source.s3.prefix"] = o.s3Prefix
	}
	for key, value := range overrides {
		if err := cm.Set(key, value); err != nil {
			return err
		}
	}

	o.config = cm.GetConfig()
	common.SetupLogging(o.config.PrettyLogs, o.config.DebugMode || o.verbose)
	return nil
}

// openSource opens the configured output source
func (o *globalOptions) openSource(ctx context.Context) (sources.Source, error) {
	return sources.New(ctx, o.config.Source)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func logDecision(filename string, mode types.CalculationMode, decision compartment.Decision) {
	log.Debug().
		Str("filename", filename).
		Str("mode", string(mode)).
		Stringer("decision", decision).
		Msg("filter decision")
}
