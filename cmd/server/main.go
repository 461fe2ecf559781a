package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dfleischhacker/spart/internal/config"
	"github.com/dfleischhacker/spart/internal/driver"
	"github.com/dfleischhacker/spart/internal/metrics"
	"github.com/dfleischhacker/spart/internal/server"
	"github.com/dfleischhacker/spart/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Config file path (TOML)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		DefaultSemantic: cfg.Evaluation.Semantic,
		Semantic:        cfg.SemanticOptions(),
		Registry:        metrics.NewRegistry(),
		Logger:          logger,
		AllowPaths:      cfg.Server.AllowPaths,
	}
	if cfg.Memgraph.Enabled {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			logger.Error("failed to connect to memgraph", "error", err)
			os.Exit(1)
		}
		defer d.Close(context.Background())
		if err := d.BuildIndices(ctx); err != nil {
			logger.Warn("failed to build indices", "error", err)
		}
		opts.Store = store.New(d, logger)
	}

	srv := server.NewServer(opts)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.Server.Addr, "semantic", cfg.Evaluation.Semantic)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
