// Command resolve resolves DOIs and paper titles from the command line and
// prints the records as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixir/literature-resolution-service/internal/app"
	"github.com/helixir/literature-resolution-service/internal/config"
	"github.com/helixir/literature-resolution-service/internal/observability"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve literature through document-delivery and scholarly-search mirrors",
		Long: `resolve looks up a paper by DOI or by title. Mirrors are tried in priority
order through a chain of relays until one answers; when every attempt fails a
stub record with direct mirror links is printed instead.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("config", "", "config file (default: ./config.yaml or /etc/literature-resolution-service/config.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level written to stderr")
	root.PersistentFlags().Bool("pretty", true, "indent JSON output")

	root.AddCommand(newDOICmd(), newSearchCmd(), newMirrorsCmd())
	return root
}

// buildApp loads configuration and wires the engine. Logs go to stderr so
// stdout carries only JSON.
func buildApp(cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logging.ObservabilityConfig()
	logCfg.Output = "stderr"
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		logCfg.Level = level
	}
	logger := observability.NewLogger(logCfg).With().Str("component", "cli").Logger()

	return app.New(cfg, logger, nil)
}

func writeJSON(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v, prettyOutput(cmd))
}

func prettyOutput(cmd *cobra.Command) bool {
	pretty, _ := cmd.Flags().GetBool("pretty")
	return pretty
}

func encodeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
