package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Options holds CLI overrides for the client; empty values keep the config.
type Options struct {
	ConfigPath  string
	URL         string
	Transport   string
	Codec       string
	TypedAsText bool
	Once        string
}

func newRootCmd() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:   "codablews-client",
		Short: "Send lines from stdin over a WebSocket and print what comes back",
		Long: `codablews-client dials a WebSocket endpoint and sends every stdin line.
Lines holding a JSON object are sent as typed values through the configured
codec, anything else as a text frame. Incoming frames are decoded and printed
as typed values, text or raw bytes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	f.StringVar(&opts.URL, "url", "", "Endpoint URL, overrides socket.url")
	f.StringVar(&opts.Transport, "transport", "", "coder|gorilla, overrides socket.transport")
	f.StringVar(&opts.Codec, "codec", "", "json|cbor|yaml|proto|json+snappy, overrides socket.codec")
	f.BoolVar(&opts.TypedAsText, "text", false, "Send typed values as text frames")
	f.StringVar(&opts.Once, "once", "", "Send a single line, print the reply and exit")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = os.Stderr.WriteString("codablews-client: " + err.Error() + "\n")
		os.Exit(1)
	}
}
