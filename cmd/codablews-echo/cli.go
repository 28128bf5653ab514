package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Options holds CLI options for the echo server.
type Options struct {
	ConfigPath string
	Listen     string
	Path       string
}

func newRootCmd() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:           "codablews-echo",
		Short:         "WebSocket echo server for exercising codablews clients",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address, overrides server.listen")
	cmd.Flags().StringVar(&opts.Path, "path", "", "Endpoint path, overrides server.path")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = os.Stderr.WriteString("codablews-echo: " + err.Error() + "\n")
		os.Exit(1)
	}
}
