// Command termgraph grows term association graphs by querying LLM
// backends and serves them for force-directed display.
package main

import (
	"fmt"
	"os"

	"termgraph/pkg/config"
	"termgraph/pkg/logger"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is loaded once before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "termgraph",
	Short: "Explore term associations produced by language models",
	Long: `termgraph expands a seed term into related terms, one step per model per
run, and keeps the growing graph in one JSON file per model.

Run "termgraph collect" from a scheduler to grow the graphs, and
"termgraph serve" to browse them.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if err := logger.Init(cfg.Env); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Sync()
		os.Exit(1)
	}
}
