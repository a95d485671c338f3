package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/dictcore/dictcore/httpapi"
	"github.com/dictcore/dictcore/internal/cache"
	"github.com/dictcore/dictcore/internal/codec"
	"github.com/dictcore/dictcore/internal/coreconfig"
	"github.com/dictcore/dictcore/internal/corelog"
	"github.com/dictcore/dictcore/internal/corework"
	"github.com/dictcore/dictcore/internal/delta"
	"github.com/dictcore/dictcore/internal/diskstore"
	"github.com/dictcore/dictcore/internal/memcache"
	"github.com/dictcore/dictcore/internal/registry"
	"github.com/dictcore/dictcore/internal/version"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath, logLevel *string) *cobra.Command {
	var addr string
	var workers int64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the dictcored HTTP server.

Opens the disk backend, starts the L1 TTL sweeper, and serves the
version-history endpoints until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, *logLevel, addr, workers)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8470", "Listen address")
	cmd.Flags().Int64Var(&workers, "workers", 8, "Max concurrent blocking operations")
	return cmd
}

func runServe(ctx context.Context, configPath, logLevel, addr string, workers int64) error {
	cfg, err := coreconfig.Load(configPath)
	if err != nil {
		return err
	}

	logCfg := corelog.DefaultConfig()
	logCfg.Level = logLevel
	logger, closeLog, err := corelog.New(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	pool := corework.New(workers)

	dir := filepath.Dir(cfg.Disk.Path)
	file := filepath.Base(cfg.Disk.Path)
	store, err := diskstore.Open(ctx, dir, file, cfg.Disk.SizeLimitBytes, pool)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	l1 := memcache.New(cfg.Namespaces)
	sweeper := memcache.NewSweeper(l1, memcache.DefaultSweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	encode := func(v any) ([]byte, error) { return codec.Canonicalize(v) }
	decode := func(data []byte) (any, error) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	twoTier := cache.New(l1, store, cfg.Namespaces, logger, encode, decode)

	policy := delta.Policy{SnapshotInterval: cfg.Delta.SnapshotInterval, MaxChainLength: cfg.Delta.MaxChainLength}
	versions := version.New(twoTier, policy, logger)

	api := httpapi.NewServer(versions, registry.KindDictionary)
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	api.Routes(router)

	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dictcored listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
