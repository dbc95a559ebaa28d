package main

import (
	"context"
	"fmt"

	"termgraph/internal/graph"
	"termgraph/internal/terms"
	"termgraph/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// graphMirror stores projected graphs
type graphMirror interface {
	SyncGraph(ctx context.Context, model string, data graph.Data) error
	ListModels(ctx context.Context) ([]string, error)
	DeleteGraph(ctx context.Context, model string) error
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror term graphs into Neo4j",
	Long: `Sync projects every term store (or only --model) and replaces the
matching graph in Neo4j. With --prune, mirrored graphs whose model has no
term store are deleted. Requires NEO4J_URI.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Neo4jEnabled() {
			return fmt.Errorf("NEO4J_URI is required for sync")
		}
		model, _ := cmd.Flags().GetString("model")
		prune, _ := cmd.Flags().GetBool("prune")
		ctx := cmd.Context()

		driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return err
		}
		repo := graph.NewRepository(driver)
		defer repo.Close(context.Background())

		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}

		store := terms.NewStore(cfg.TermsDir(), cfg.RootTerm)
		models := []string{model}
		if model == "" {
			if models, err = store.List(); err != nil {
				return err
			}
		}
		if err := syncGraphs(ctx, store, repo, models); err != nil {
			return err
		}
		if prune {
			return pruneGraphs(ctx, store, repo)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().String("model", "", "only sync this model (default all stored models)")
	syncCmd.Flags().Bool("prune", false, "delete mirrored graphs that have no term store")
	rootCmd.AddCommand(syncCmd)
}

func syncGraphs(ctx context.Context, store *terms.Store, repo graphMirror, models []string) error {
	log := logger.Get()
	for _, model := range models {
		if !store.Exists(model) {
			return fmt.Errorf("no term store for model %q in %s", model, store.Dir())
		}
		m, err := store.Load(model)
		if err != nil {
			return err
		}
		if err := repo.SyncGraph(ctx, model, graph.Project(m)); err != nil {
			return err
		}
		log.Info("Model synced", logger.Model(model), zap.Int("terms", m.Len()))
	}
	return nil
}

// pruneGraphs deletes every mirrored model whose term store is gone
func pruneGraphs(ctx context.Context, store *terms.Store, repo graphMirror) error {
	log := logger.Get()
	mirrored, err := repo.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, model := range mirrored {
		if store.Exists(model) {
			continue
		}
		if err := repo.DeleteGraph(ctx, model); err != nil {
			return err
		}
		log.Info("Mirrored graph pruned", logger.Model(model))
	}
	return nil
}
