package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"montreal-tree-map/internal/adapter/httpapi"
	"montreal-tree-map/internal/observability"
	"montreal-tree-map/internal/viewer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map page, dataset, and year-query API",
	Long: `Serve starts the viewer HTTP server. The consolidated dataset is loaded
once in the background; /readyz and the /api/v1 routes answer 503 until
the year index is built. A dataset that cannot be loaded is fatal.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	srv := httpapi.New(cfg.HTTPAddr, cfg.DatasetPath, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// The one dataset read. Load failure is terminal: there is nothing to
	// serve without the index.
	loadErr := make(chan error, 1)
	go func() {
		store, err := viewer.Load(cfg.DatasetPath)
		if err != nil {
			loadErr <- err
			return
		}
		srv.SetStore(store)
		logger.Info("dataset loaded",
			"path", cfg.DatasetPath,
			"records", store.Len(),
			"skipped", store.Skipped(),
		)
		loadErr <- nil
	}()

	var fatal error
	select {
	case err := <-loadErr:
		if err != nil {
			fatal = fmt.Errorf("load dataset %s: %w", cfg.DatasetPath, err)
			break
		}
		<-ctx.Done()
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if fatal != nil {
		return fatal
	}
	logger.Info("shutdown complete")
	return nil
}
