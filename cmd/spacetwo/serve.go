package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/spacetwo/spacetwo-chat/internal/transport/chi"
	natsTransport "github.com/spacetwo/spacetwo-chat/internal/transport/nats"
	"github.com/spacetwo/spacetwo-chat/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the NATS ingest subscriber when configured)",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.serve()
	},
}

func (a *app) serve() error {
	cfg := a.cfg
	a.logger.Info("Starting spacetwo chat server",
		zap.String("build", version.String()),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("index_name", cfg.Index.Name),
		zap.String("embedding_mode", string(a.clients.Embeddings().Mode())),
	)

	if err := a.ensureIndex(context.Background()); err != nil {
		return err
	}

	if cfg.NATS.URL != "" {
		nc, err := natsTransport.Connect(cfg.NATS.URL, "spacetwo-chat", a.logger)
		if err != nil {
			return err
		}
		defer nc.Drain() //nolint:errcheck // best effort on shutdown

		sub := natsTransport.NewSubscriber(nc, a.ingest, time.Duration(cfg.HTTP.RequestTimeoutSec)*time.Second, a.logger)
		if _, err := sub.Subscribe(cfg.NATS.IngestSubject, cfg.NATS.QueueGroup); err != nil {
			return err
		}
	}

	server := chiTransport.NewServer(a.chat, a.ingest, a.search, a.health, a.logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
	}, a.logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
