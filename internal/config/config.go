package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Index drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverQdrant = "qdrant"
	DriverMemory = "memory"
)

// ErrMissingCredential is returned by Validate when the index requires a credential that is not set.
var ErrMissingCredential = errors.New("missing index credential")

// Config holds the spacetwo chat service configuration.
// It is built once at startup and passed by value into constructors.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Router     RouterConfig     `yaml:"router"`
	Chat       ChatConfig       `yaml:"chat"`
	NATS       NATSConfig       `yaml:"nats"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int      `yaml:"port"`
	ReadTimeoutSec    int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int      `yaml:"write_timeout_sec"`
	ShutdownSec       int      `yaml:"shutdown_timeout_sec"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Driver            string   `yaml:"driver"` // valkey, redis, qdrant, memory (default: valkey)
	Name              string   `yaml:"name"`
	Addrs             []string `yaml:"addrs"`       // valkey/redis
	Password          string   `yaml:"password"`    // valkey/redis
	QdrantAddr        string   `yaml:"qdrant_addr"` // host:port of the gRPC endpoint
	APIKey            string   `yaml:"api_key"`     // qdrant
	QdrantTLS         bool     `yaml:"qdrant_tls"`
	RequireCredential bool     `yaml:"require_credential"`
	HNSWM             int      `yaml:"hnsw_m"`
	HNSWEFConstruct   int      `yaml:"hnsw_ef_construction"`
	ReadinessTimeout  int      `yaml:"readiness_timeout_sec"`
	MaxBatchSize      int      `yaml:"max_batch_size"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Model      string        `yaml:"model"`
	Dimensions int           `yaml:"dimensions"`
	Fallback   Toggle        `yaml:"fallback"` // always use the local hash embedder
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	TimeoutSec int           `yaml:"timeout_sec"`
	RateLimit  RateConfig    `yaml:"rate_limit"`
	Breaker    BreakerConfig `yaml:"breaker"`
	Budget     BudgetConfig  `yaml:"budget"`
	Cache      bool          `yaml:"cache"` // cache vectors in valkey (valkey/redis drivers only)
}

// RateConfig holds client-side rate limiting for an upstream API.
type RateConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	FailThreshold  int `yaml:"fail_threshold"`
	OpenTimeoutSec int `yaml:"open_timeout_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ClassifierConfig holds the LLM intent classifier settings.
type ClassifierConfig struct {
	Model       string     `yaml:"model"`
	APIKey      string     `yaml:"api_key"`
	BaseURL     string     `yaml:"base_url"`
	TimeoutSec  int        `yaml:"timeout_sec"`
	Temperature float32    `yaml:"temperature"`
	RateLimit   RateConfig `yaml:"rate_limit"`
}

// RouterConfig holds intent routing settings.
type RouterConfig struct {
	HistoryWindow int      `yaml:"history_window"`
	Keywords      []string `yaml:"keywords"`
}

// ChatConfig holds orchestrator settings.
type ChatConfig struct {
	TopK int `yaml:"top_k"`
}

// NATSConfig holds the optional NATS ingest subscriber settings.
type NATSConfig struct {
	URL           string `yaml:"url"` // empty disables the subscriber
	IngestSubject string `yaml:"ingest_subject"`
	QueueGroup    string `yaml:"queue_group"`
}

// Toggle is a boolean that also accepts the env-style spellings 1/yes/on.
type Toggle bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Toggle) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "1", "true", "yes", "on":
		*t = true
	case "", "0", "false", "no", "off":
		*t = false
	default:
		return fmt.Errorf("invalid toggle value %q", node.Value)
	}
	return nil
}

// DefaultKeywords is the keyword set used by the rule-based intent fallback.
var DefaultKeywords = []string{"editor", "composer", "designer", "animator", "collab", "recommend"}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFrom("", env)
}

// LoadFrom reads configuration from dir/<env>.yaml. An empty dir searches the default locations.
func LoadFrom(dir, env string) (Config, error) {
	configPath := findConfigPath(dir, env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse builds a Config from raw YAML, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyHTTPDefaults()
	c.applyIndexDefaults()
	c.applyEmbeddingDefaults()

	if c.Classifier.Model == "" {
		c.Classifier.Model = "gpt-4o-mini"
	}
	if c.Classifier.TimeoutSec <= 0 {
		c.Classifier.TimeoutSec = 15
	}
	if c.Classifier.RateLimit.RPS <= 0 {
		c.Classifier.RateLimit.RPS = 5
	}
	if c.Classifier.RateLimit.Burst <= 0 {
		c.Classifier.RateLimit.Burst = 10
	}
	if c.Router.HistoryWindow <= 0 {
		c.Router.HistoryWindow = 10
	}
	if len(c.Router.Keywords) == 0 {
		c.Router.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if c.Chat.TopK <= 0 {
		c.Chat.TopK = 6
	}
	if c.NATS.IngestSubject == "" {
		c.NATS.IngestSubject = "spacetwo.ingest"
	}
}

func (c *Config) applyHTTPDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 30
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
}

func (c *Config) applyIndexDefaults() {
	if c.Index.Driver == "" {
		c.Index.Driver = DriverValkey
	}
	if c.Index.Name == "" {
		c.Index.Name = "spacetwo-collaborators"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 100
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 20
	}
	if c.Embedding.RateLimit.RPS <= 0 {
		c.Embedding.RateLimit.RPS = 10
	}
	if c.Embedding.RateLimit.Burst <= 0 {
		c.Embedding.RateLimit.Burst = 20
	}
	if c.Embedding.Breaker.FailThreshold <= 0 {
		c.Embedding.Breaker.FailThreshold = 5
	}
	if c.Embedding.Breaker.OpenTimeoutSec <= 0 {
		c.Embedding.Breaker.OpenTimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if err := c.validateIndex(); err != nil {
		return err
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	return nil
}

func (c *Config) validateIndex() error {
	switch c.Index.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("index.addrs is required for driver %q", c.Index.Driver)
		}
		if c.Index.RequireCredential && c.Index.Password == "" {
			return fmt.Errorf("index.password: %w", ErrMissingCredential)
		}
	case DriverQdrant:
		if c.Index.QdrantAddr == "" {
			return fmt.Errorf("index.qdrant_addr is required for driver %q", c.Index.Driver)
		}
		if c.Index.RequireCredential && c.Index.APIKey == "" {
			return fmt.Errorf("index.api_key: %w", ErrMissingCredential)
		}
	case DriverMemory:
		// ok
	default:
		return fmt.Errorf("index.driver must be one of valkey, redis, qdrant, memory, got %q", c.Index.Driver)
	}
	if c.Index.Name == "" {
		return fmt.Errorf("index.name is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(dir, env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if dir != "" {
		return filepath.Join(dir, filename)
	}

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
