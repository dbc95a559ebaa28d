package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"termgraph/internal/association"
	"termgraph/internal/calls"
	"termgraph/internal/expansion"
	"termgraph/internal/metrics"
	"termgraph/internal/terms"
	"termgraph/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Expand one frontier term per model",
	Long: `Collect loads every configured model's term store, asks the model for
terms related to the first unexpanded term, merges the answer and saves
the store. Raw responses are kept under <data-dir>/calls/<run>/.

Each run performs one step per model; schedule it to grow the graphs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
		backends, err := buildBackends(cfg)
		if err != nil {
			return err
		}

		if err := collectOnce(ctx, backends, nil); err != nil {
			return err
		}
		logger.Get().Info("Done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

// collectOnce runs one expansion step per backend. Call records of the run
// share one batch directory named after its start time.
func collectOnce(ctx context.Context, backends []association.Backend, m *metrics.Metrics) error {
	runID := uuid.NewString()
	log := logger.ForRun("collect", runID)
	started := time.Now()

	recorder := calls.NewRecorder(cfg.CallsDir(), started)
	store := terms.NewStore(cfg.TermsDir(), cfg.RootTerm)
	driver := expansion.NewDriver(store, association.NewProvider(recorder), backends, expansion.Options{
		Delay:          cfg.ExpansionDelay,
		MaxTerms:       cfg.MaxTerms,
		FailFast:       cfg.FailFast,
		RequestTimeout: cfg.RequestTimeout,
	})
	driver.SetMetrics(m)

	log.Info("Starting collection",
		zap.Int("models", len(backends)),
		zap.String("terms_dir", store.Dir()),
		zap.String("calls_dir", recorder.BatchDir()),
	)

	report, err := driver.Run(ctx, runID)
	for _, step := range report.Steps {
		log.Info("Model step",
				logger.Model(step.Model),
			zap.String("outcome", string(step.Outcome)),
			zap.String("term", step.Term),
			zap.Int("new_terms", step.NewTerms),
		)
	}
	if err != nil {
		return err
	}

	log.Info("Collection finished",
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}
