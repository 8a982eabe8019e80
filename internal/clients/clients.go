// Package clients holds the process-wide upstream handles built from Config.
// Each handle is created at most once, on first use.
package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/config"
	"github.com/spacetwo/spacetwo-chat/internal/db/valkey"
	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/metrics"
	"github.com/spacetwo/spacetwo-chat/internal/repository/budget"
	"github.com/spacetwo/spacetwo-chat/internal/repository/embcache"
	"github.com/spacetwo/spacetwo-chat/internal/repository/index"
	"github.com/spacetwo/spacetwo-chat/internal/repository/memory"
	"github.com/spacetwo/spacetwo-chat/internal/repository/qdrant"
	"github.com/spacetwo/spacetwo-chat/internal/resilience"
	"github.com/spacetwo/spacetwo-chat/internal/transport/openai"
	"github.com/spacetwo/spacetwo-chat/internal/usecase/embedding"
	"github.com/spacetwo/spacetwo-chat/internal/usecase/router"
	"github.com/spacetwo/spacetwo-chat/internal/usecase/search"
)

const providerName = "openai"

// Index is a vector index gateway that can also be health-checked.
type Index interface {
	search.Gateway
	Ping(ctx context.Context) error
}

// Holder lazily builds and owns upstream clients.
type Holder struct {
	cfg    config.Config
	logger *zap.Logger

	valkey   func() (*valkey.Store, error)
	qdrant   func() (*qdrant.Repo, error)
	memory   func() *memory.Index
	provider func() *embedding.Provider
	router   func() *router.Router
}

// New creates a holder. Nothing is dialled until first use.
func New(cfg config.Config, logger *zap.Logger) *Holder {
	h := &Holder{cfg: cfg, logger: logger}
	h.valkey = sync.OnceValues(h.dialValkey)
	h.qdrant = sync.OnceValues(h.dialQdrant)
	h.memory = sync.OnceValue(func() *memory.Index { return memory.New(cfg.Index.Name) })
	h.provider = sync.OnceValue(h.buildProvider)
	h.router = sync.OnceValue(h.buildRouter)
	return h
}

// Driver returns the configured index driver.
func (h *Holder) Driver() string { return h.cfg.Index.Driver }

// Index returns the gateway for the configured driver.
func (h *Holder) Index() (Index, error) {
	switch h.cfg.Index.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := h.valkey()
		if err != nil {
			return nil, err
		}
		return index.New(store, h.cfg.Index.Name, h.cfg.Index.Driver).WithHNSW(index.HNSWConfig{
			M:           h.cfg.Index.HNSWM,
			EFConstruct: h.cfg.Index.HNSWEFConstruct,
		}), nil
	case config.DriverQdrant:
		return h.qdrant()
	case config.DriverMemory:
		return h.memory(), nil
	default:
		return nil, fmt.Errorf("unknown index driver %q", h.cfg.Index.Driver)
	}
}

// Embeddings returns the embedding provider with the full upstream decorator chain.
func (h *Holder) Embeddings() *embedding.Provider { return h.provider() }

// Router returns the intent router. Without an API key it routes with keyword rules only.
func (h *Holder) Router() *router.Router { return h.router() }

// Close releases every client that was created.
func (h *Holder) Close() error {
	var errs []error
	if h.usesValkey() {
		if store, err := h.valkey(); err == nil {
			store.Close()
		}
	}
	if h.cfg.Index.Driver == config.DriverQdrant {
		if repo, err := h.qdrant(); err == nil {
			errs = append(errs, repo.Close())
		}
	}
	return errors.Join(errs...)
}

func (h *Holder) usesValkey() bool {
	d := h.cfg.Index.Driver
	return d == config.DriverValkey || d == config.DriverRedis
}

func (h *Holder) dialValkey() (*valkey.Store, error) {
	store, err := valkey.NewStore(valkey.Config{
		Addrs:    h.cfg.Index.Addrs,
		Password: h.cfg.Index.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", h.cfg.Index.Driver, err)
	}

	timeout := time.Duration(h.cfg.Index.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(context.Background(), timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", h.cfg.Index.Driver, err)
	}
	h.logger.Info("Connected to index store",
		zap.String("driver", h.cfg.Index.Driver),
		zap.Strings("addrs", h.cfg.Index.Addrs),
	)
	return store, nil
}

func (h *Holder) dialQdrant() (*qdrant.Repo, error) {
	repo, err := qdrant.Dial(qdrant.Config{
		Addr:   h.cfg.Index.QdrantAddr,
		APIKey: h.cfg.Index.APIKey,
		TLS:    h.cfg.Index.QdrantTLS,
	}, h.cfg.Index.Name)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Connected to qdrant", zap.String("addr", h.cfg.Index.QdrantAddr))
	return repo, nil
}

func (h *Holder) buildProvider() *embedding.Provider {
	cfg := h.cfg.Embedding
	pc := embedding.ProviderConfig{
		Dimension:  cfg.Dimensions,
		Model:      cfg.Model,
		ForceLocal: bool(cfg.Fallback),
	}
	if cfg.APIKey != "" && !pc.ForceLocal {
		pc.Primary = h.buildPrimary()
	}

	p := embedding.NewProvider(pc, h.logger)
	h.logger.Info("Embedding provider ready",
		zap.String("mode", string(p.Mode())),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
	)
	return p
}

// buildPrimary wires upstream, rate limit, breaker, budget and cache, innermost first.
func (h *Holder) buildPrimary() domain.Embedder {
	cfg := h.cfg.Embedding

	var e domain.Embedder = openai.NewEmbedder(&openai.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Provider:   providerName,
		Logger:     h.logger,
	})
	e = embedding.NewRateLimitedEmbedder(e, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	e = embedding.NewBreakerEmbedder(e, providerName, resilience.BreakerOpts{
		FailThreshold: cfg.Breaker.FailThreshold,
		Timeout:       time.Duration(cfg.Breaker.OpenTimeoutSec) * time.Second,
	})

	var checker embedding.BudgetChecker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		tracker := embedding.NewBudgetTracker(providerName,
			cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit,
			embedding.BudgetAction(cfg.Budget.Action), h.logger)
		if h.usesValkey() {
			if store, err := h.valkey(); err == nil {
				tracker = tracker.WithStore(context.Background(), budget.New(store, 0, 0))
			} else {
				h.logger.Warn("Budget counters kept in memory only", zap.Error(err))
			}
		}
		checker = tracker
	}
	e = embedding.NewMeteredEmbedder(e, providerName, cfg.Model, checker, h.logger)

	if cfg.Cache && h.usesValkey() {
		if store, err := h.valkey(); err == nil {
			e = embcache.New(e, store,
				embcache.Options{Model: cfg.Model, Dim: cfg.Dimensions},
				metrics.EmbeddingCacheTotal, h.logger)
		} else {
			h.logger.Warn("Embedding cache disabled", zap.Error(err))
		}
	}
	return e
}

func (h *Holder) buildRouter() *router.Router {
	cfg := h.cfg.Classifier
	key := cfg.APIKey
	if key == "" {
		key = h.cfg.Embedding.APIKey
	}
	if key == "" {
		h.logger.Info("No classifier credential, routing with keyword rules")
		return router.New(nil, h.cfg.Router.Keywords, cfg.Model, h.logger)
	}

	c := openai.NewClassifier(&openai.Config{
		APIKey:  key,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:  h.logger,
	},
		openai.WithTemperature(cfg.Temperature),
		openai.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	)
	return router.New(c, h.cfg.Router.Keywords, cfg.Model, h.logger)
}
