// Package embed turns heading text into dense vectors.
//
// Three backends are available: an in-process sentence-transformer loaded
// through hugot, an OpenAI-compatible HTTP client, and a deterministic
// feature-hashing embedder for offline use. New wraps the chosen backend
// with token truncation and, optionally, an LRU cache and latency stats.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Backend names accepted by New.
const (
	BackendLocal = "local"
	BackendHTTP  = "http"
	BackendHash  = "hash"
)

// DefaultModelRepo is the Hugging Face repository fetched by the local backend.
const DefaultModelRepo = "sentence-transformers/all-MiniLM-L6-v2"

var (
	// ErrLocalUnavailable is returned on builds without the local model runtime.
	ErrLocalUnavailable = errors.New("local embedding backend not available in this build")
	ErrUnknownBackend   = errors.New("unknown embedding backend")
)

// Embedder converts text to vectors. Implementations must be safe for
// concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector size, or 0 if not yet known.
	Dimension() int

	Model() string
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string `yaml:"backend"`

	// Local backend.
	ModelRepo     string `yaml:"model_repo"`
	ModelPath     string `yaml:"model_path"`
	AllowDownload bool   `yaml:"allow_download"`

	// HTTP backend.
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`

	// Hash backend; also the expected size for HTTP (0 = auto-detect).
	Dimension int `yaml:"dimension"`

	BatchSize int `yaml:"batch_size"`
	MaxTokens int `yaml:"max_tokens"` // Inputs are cut to this many tokens
	CacheSize int `yaml:"cache_size"` // 0 disables the cache

	StatsWindow time.Duration `yaml:"stats_window"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.ModelRepo == "" {
		c.ModelRepo = DefaultModelRepo
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 32
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New builds the configured backend and wraps it. The returned value is an
// *Instrumented so callers can read latency stats.
func New(ctx context.Context, cfg Config) (*Instrumented, error) {
	cfg.defaults()

	var (
		base Embedder
		err  error
	)
	switch cfg.Backend {
	case BackendLocal:
		base, err = newLocal(ctx, cfg)
	case BackendHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("http embedding backend requires an endpoint")
		}
		base = NewHTTP(cfg)
	case BackendHash:
		base = NewHash(cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s embedder: %w", cfg.Backend, err)
	}

	// Truncating sits outside the cache: entries are keyed by truncated text.
	e := base
	if cfg.CacheSize > 0 {
		cached, err := NewCached(base, cfg.CacheSize)
		if err != nil {
			base.Close()
			return nil, err
		}
		e = cached
	}
	e = NewTruncating(e, cfg.MaxTokens)

	cfg.Logger.Info("embedder ready",
		"backend", cfg.Backend,
		"model", e.Model(),
		"dimension", e.Dimension(),
		"max_tokens", cfg.MaxTokens,
		"cache_size", cfg.CacheSize,
	)
	return NewInstrumented(e, cfg.StatsWindow), nil
}

// Float64s widens a vector for numeric code.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
