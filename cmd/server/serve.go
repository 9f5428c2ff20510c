package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/cleia/internal/elicitation"
	"github.com/ashureev/cleia/internal/health"
	"github.com/ashureev/cleia/internal/llm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and the gRPC health endpoint when configured)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting server", "port", cfg.Port, "model", cfg.OllamaModel, "inference_url", cfg.OllamaURL)

	repo, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(repo)

	if cfg.AutoMigrate {
		if err := repo.Migrate(); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	generator := llm.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.LLMTimeout)
	defer generator.Close()

	svc := elicitation.NewService(repo, generator)

	// WriteTimeout stays 0: chat turns wait on the model and sockets are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, repo, svc),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	var healthLis net.Listener
	if cfg.GRPCHealthAddr != "" {
		healthLis, err = net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("listen grpc health: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if healthLis != nil {
		hs := health.NewServer(repo, cfg.HealthProbeInterval)
		g.Go(func() error { return hs.Serve(gctx, healthLis) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}
