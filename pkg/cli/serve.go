package cli

import (
	"github.com/spf13/cobra"

	"github.com/beam-cloud/hazardkit/pkg/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parse, filter and summary API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			src, err := opts.openSource(ctx)
			if err != nil {
				return err
			}

			cfg := opts.config.Server
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			s := server.NewServer(cfg, src)
			PrintInfof("Serving %s on %s", CodeStyle.Render(src.Location()), CodeStyle.Render("http://"+s.Addr()))
			PrintHint("Press Ctrl+C to stop")
			return s.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default server.port)")
	return cmd
}
