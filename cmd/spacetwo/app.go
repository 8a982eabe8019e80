package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/clients"
	"github.com/spacetwo/spacetwo-chat/internal/config"
	logpkg "github.com/spacetwo/spacetwo-chat/internal/logger"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
	chatuc "github.com/spacetwo/spacetwo-chat/internal/usecase/chat"
	healthuc "github.com/spacetwo/spacetwo-chat/internal/usecase/health"
	ingestuc "github.com/spacetwo/spacetwo-chat/internal/usecase/ingest"
	searchuc "github.com/spacetwo/spacetwo-chat/internal/usecase/search"
)

// app is the composition root shared by every subcommand.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	clients *clients.Holder

	search *searchuc.Service
	ingest *ingestuc.Service
	chat   *chatuc.Service
	health *healthuc.Service
}

func newApp() (*app, error) {
	env := viper.GetString("env")
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.LoadFrom(viper.GetString("config-dir"), env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if l := viper.GetString("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.New(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	holder := clients.New(cfg, logger)
	index, err := holder.Index()
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open %s index: %w", holder.Driver(), err)
	}
	provider := holder.Embeddings()

	searchSvc := searchuc.New(index, provider, holder.Driver())
	a := &app{
		env:     env,
		cfg:     cfg,
		logger:  logger,
		clients: holder,
		search:  searchSvc,
		ingest:  ingestuc.New(searchSvc, provider).WithMaxBatchSize(cfg.Index.MaxBatchSize),
		chat: chatuc.New(holder.Router(), searchSvc, chatuc.Options{
			TopK:          cfg.Chat.TopK,
			HistoryWindow: cfg.Router.HistoryWindow,
		}),
		health: healthuc.New(index, provider),
	}
	return a, nil
}

func (a *app) close() {
	if err := a.clients.Close(); err != nil {
		a.logger.Warn("Error closing clients", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// ensureIndex creates or checks the index before any work is accepted, so a
// misconfigured index stops the command instead of degrading every request.
func (a *app) ensureIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.Index.ReadinessTimeout)*time.Second)
	defer cancel()

	h, err := a.search.Handle(ctx)
	if err != nil {
		return fmt.Errorf("prepare %s index %q: %w", a.clients.Driver(), a.cfg.Index.Name, err)
	}
	a.logger.Info("Index ready",
		zap.String("index", h.Name),
		zap.Int("dimension", h.Dimension),
		zap.String("driver", h.Driver),
	)
	return nil
}
