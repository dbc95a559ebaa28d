package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"termgraph/internal/graph"
	"termgraph/internal/terms"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a model's projected graph as JSON",
	Long: `Export projects a model's term store into {nodes, links} graph data, the
shape the force-directed renderer consumes, and writes it to stdout or a
file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		out, _ := cmd.Flags().GetString("out")

		store := terms.NewStore(cfg.TermsDir(), cfg.RootTerm)
		if !store.Exists(model) {
			return fmt.Errorf("no term store for model %q in %s", model, store.Dir())
		}

		var w io.Writer = cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		return exportGraph(w, store, model)
	},
}

func init() {
	exportCmd.Flags().String("model", "", "model whose graph is exported")
	exportCmd.Flags().String("out", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(exportCmd)
}

func exportGraph(w io.Writer, store *terms.Store, model string) error {
	m, err := store.Load(model)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(graph.Project(m))
}
