package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"termgraph/internal/graph"
	"termgraph/internal/metrics"
	"termgraph/internal/server"
	"termgraph/internal/terms"
	"termgraph/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve term graphs over HTTP",
	Long: `Serve exposes every model's projected term graph as JSON and a page that
draws it as a force-directed graph. With --collect-interval the server also
runs one collection step per model on that interval.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Get()
		interval, _ := cmd.Flags().GetDuration("collect-interval")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)

		store := terms.NewStore(cfg.TermsDir(), cfg.RootTerm)
		srv := server.New(store, modelNames(cfg), m, reg)

		if cfg.Neo4jEnabled() {
			driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
			if err != nil {
				return err
			}
			repo := graph.NewRepository(driver)
			defer repo.Close(context.Background())
			srv.SetMirror(repo)
		}

		scheduled := &sync.WaitGroup{}
		if interval > 0 {
			if err := cfg.ValidateCredentials(); err != nil {
				return err
			}
			backends, err := buildBackends(cfg)
			if err != nil {
				return err
			}
			scheduled = startScheduler(ctx, interval, func(ctx context.Context) {
				if err := collectOnce(ctx, backends, m); err != nil {
					log.Error("Scheduled collection failed", zap.Error(err))
				}
			})
		}

		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		httpServer := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: srv.Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		log.Info("Server started",
			zap.String("port", cfg.Port),
			zap.Duration("collect_interval", interval),
		)

		select {
		case err := <-errCh:
			stop()
			scheduled.Wait()
			return err
		case <-ctx.Done():
		}

		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}

		// a running step finishes its save before exit
		scheduled.Wait()

		log.Info("Server exited")
		return nil
	},
}

func init() {
	serveCmd.Flags().Duration("collect-interval", 0, "run one collection step per model on this interval (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

// startScheduler calls step on every tick until ctx is done.
// The returned group is released once the loop and any running step have returned.
func startScheduler(ctx context.Context, interval time.Duration, step func(ctx context.Context)) *sync.WaitGroup {
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				step(ctx)
			}
		}
	}()
	return wg
}
