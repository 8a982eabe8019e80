package config

import (
	"errors"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Index: IndexConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget.Action = "invalid_action"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Driver = "pinecone"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_MissingQdrantAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Driver = DriverQdrant

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing qdrant address")
	}
}

func TestValidate_MissingCredential(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"valkey", func(c *Config) { c.Index.RequireCredential = true }},
		{"qdrant", func(c *Config) {
			c.Index.Driver = DriverQdrant
			c.Index.QdrantAddr = "localhost:6334"
			c.Index.RequireCredential = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mod(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrMissingCredential) {
				t.Fatalf("expected ErrMissingCredential, got %v", err)
			}
		})
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Driver = DriverMemory
	cfg.Index.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8000 {
		t.Errorf("expected Port=8000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Index.Driver != DriverValkey {
		t.Errorf("expected driver valkey, got %q", cfg.Index.Driver)
	}
	if cfg.Index.Name != "spacetwo-collaborators" {
		t.Errorf("expected default index name, got %q", cfg.Index.Name)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Classifier.Model != "gpt-4o-mini" {
		t.Errorf("expected classifier model gpt-4o-mini, got %q", cfg.Classifier.Model)
	}
	if cfg.Router.HistoryWindow != 10 {
		t.Errorf("expected HistoryWindow=10, got %d", cfg.Router.HistoryWindow)
	}
	if len(cfg.Router.Keywords) != len(DefaultKeywords) {
		t.Errorf("expected %d keywords, got %d", len(DefaultKeywords), len(cfg.Router.Keywords))
	}
	if cfg.Chat.TopK != 6 {
		t.Errorf("expected TopK=6, got %d", cfg.Chat.TopK)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SPACETWO_TEST_DIM", "32")
	t.Setenv("SPACETWO_TEST_FALLBACK", "yes")

	cfg, err := Parse([]byte(`
index:
  driver: memory
embedding:
  dimensions: ${SPACETWO_TEST_DIM}
  fallback: ${SPACETWO_TEST_FALLBACK}
  model: ${SPACETWO_TEST_UNSET:-custom-model}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Embedding.Dimensions != 32 {
		t.Errorf("expected Dimensions=32, got %d", cfg.Embedding.Dimensions)
	}
	if !cfg.Embedding.Fallback {
		t.Error("expected fallback toggle on")
	}
	if cfg.Embedding.Model != "custom-model" {
		t.Errorf("expected default substitution, got %q", cfg.Embedding.Model)
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{"true", true, false},
		{"YES", true, false},
		{"on", true, false},
		{"0", false, false},
		{"off", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg, err := Parse([]byte("index:\n  driver: memory\nembedding:\n  fallback: \"" + tt.in + "\"\n"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if bool(cfg.Embedding.Fallback) != tt.want {
				t.Errorf("got %v, want %v", cfg.Embedding.Fallback, tt.want)
			}
		})
	}
}
