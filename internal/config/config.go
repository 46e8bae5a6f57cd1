package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the variable pointing at an optional YAML config file.
const FileEnv = "OUTLINER_CONFIG"

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Auth; empty disables API key checks.
	APIKey string `yaml:"api_key"`

	// Batch mode
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	// Result cache; empty disables it.
	CachePath   string        `yaml:"cache_path"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`

	// Embedding
	EmbedBackend       string        `yaml:"embed_backend"`
	EmbedModelRepo     string        `yaml:"embed_model_repo"`
	EmbedModelPath     string        `yaml:"embed_model_path"`
	EmbedAllowDownload bool          `yaml:"embed_allow_download"`
	EmbedEndpoint      string        `yaml:"embed_endpoint"`
	EmbedModel         string        `yaml:"embed_model"`
	EmbedDimension     int           `yaml:"embed_dimension"`
	EmbedTimeout       time.Duration `yaml:"embed_timeout"`
	EmbedBatchSize     int           `yaml:"embed_batch_size"`
	EmbedMaxTokens     int           `yaml:"embed_max_tokens"`
	EmbedCacheSize     int           `yaml:"embed_cache_size"`
	EmbedConcurrency   int           `yaml:"embed_concurrency"`

	// Clustering
	ClusterSeed uint64 `yaml:"cluster_seed"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:     "8090",
		LogLevel: "info",

		InputDir:  "/app/input",
		OutputDir: "/app/output",

		WorkerCount:  4,
		MaxQueueSize: 100,

		MaxUploadBytes: 52428800, // 50MB

		JobTTL: 1 * time.Hour,

		PDFFallbackPdftotext: false,

		CacheMaxAge: 30 * 24 * time.Hour,

		EmbedBackend:       "local",
		EmbedModelRepo:     "sentence-transformers/all-MiniLM-L6-v2",
		EmbedAllowDownload: true,
		EmbedTimeout:       30 * time.Second,
		EmbedBatchSize:     32,
		EmbedMaxTokens:     32,
		EmbedCacheSize:     4096,
		EmbedConcurrency:   4,

		ClusterSeed: 42,
	}
}

// Load starts from Defaults, applies the YAML file named by OUTLINER_CONFIG
// if set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.clamp()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("OUTLINER_LOG_LEVEL", cfg.LogLevel)
	cfg.APIKey = envOr("OUTLINER_API_KEY", cfg.APIKey)

	cfg.InputDir = envOr("OUTLINER_INPUT_DIR", cfg.InputDir)
	cfg.OutputDir = envOr("OUTLINER_OUTPUT_DIR", cfg.OutputDir)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.CachePath = envOr("OUTLINER_CACHE_PATH", cfg.CachePath)
	cfg.CacheMaxAge = envDuration("OUTLINER_CACHE_MAX_AGE", cfg.CacheMaxAge)

	cfg.EmbedBackend = envOr("EMBED_BACKEND", cfg.EmbedBackend)
	cfg.EmbedModelRepo = envOr("EMBED_MODEL_REPO", cfg.EmbedModelRepo)
	cfg.EmbedModelPath = envOr("EMBED_MODEL_PATH", cfg.EmbedModelPath)
	cfg.EmbedAllowDownload = envBool("EMBED_ALLOW_DOWNLOAD", cfg.EmbedAllowDownload)
	cfg.EmbedEndpoint = envOr("EMBED_ENDPOINT", cfg.EmbedEndpoint)
	cfg.EmbedModel = envOr("EMBED_MODEL", cfg.EmbedModel)
	cfg.EmbedDimension = envInt("EMBED_DIMENSION", cfg.EmbedDimension)
	cfg.EmbedTimeout = envDuration("EMBED_TIMEOUT", cfg.EmbedTimeout)
	cfg.EmbedBatchSize = envInt("EMBED_BATCH_SIZE", cfg.EmbedBatchSize)
	cfg.EmbedMaxTokens = envInt("EMBED_MAX_TOKENS", cfg.EmbedMaxTokens)
	cfg.EmbedCacheSize = envInt("EMBED_CACHE_SIZE", cfg.EmbedCacheSize)
	cfg.EmbedConcurrency = envInt("EMBED_CONCURRENCY", cfg.EmbedConcurrency)

	cfg.ClusterSeed = envUint64("CLUSTER_SEED", cfg.ClusterSeed)
}

func (c *Config) clamp() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = d.EmbedBatchSize
	}
	if c.EmbedMaxTokens <= 0 {
		c.EmbedMaxTokens = d.EmbedMaxTokens
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = d.EmbedConcurrency
	}
	if c.EmbedCacheSize < 0 {
		c.EmbedCacheSize = 0
	}
}

func (c Config) Validate() error {
	switch c.EmbedBackend {
	case "local", "hash":
	case "http":
		if c.EmbedEndpoint == "" {
			return fmt.Errorf("EMBED_ENDPOINT is required for the http backend")
		}
	default:
		return fmt.Errorf("EMBED_BACKEND must be local, http or hash, got %q", c.EmbedBackend)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
