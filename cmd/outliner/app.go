package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/outliner/internal/cluster"
	"github.com/dgallion1/outliner/internal/config"
	"github.com/dgallion1/outliner/internal/embed"
	"github.com/dgallion1/outliner/internal/pipeline"
	"github.com/dgallion1/outliner/internal/rank"
	"github.com/dgallion1/outliner/internal/store"
)

func loadConfig() (config.Config, error) {
	if configPath != "" {
		os.Setenv(config.FileEnv, configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	lvl, _ := cfg.SlogLevel()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// app holds the components shared by every command that ranks documents.
// The embedding model is loaded once here and reused for all documents.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	embedder *embed.Instrumented
	ranker   *rank.Classifier
	cache    *store.Store
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	e, err := embed.New(ctx, embed.Config{
		Backend:       cfg.EmbedBackend,
		ModelRepo:     cfg.EmbedModelRepo,
		ModelPath:     cfg.EmbedModelPath,
		AllowDownload: cfg.EmbedAllowDownload,
		Endpoint:      cfg.EmbedEndpoint,
		Model:         cfg.EmbedModel,
		Timeout:       cfg.EmbedTimeout,
		Dimension:     cfg.EmbedDimension,
		BatchSize:     cfg.EmbedBatchSize,
		MaxTokens:     cfg.EmbedMaxTokens,
		CacheSize:     cfg.EmbedCacheSize,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, embedder: e}

	clusterCfg := cluster.DefaultConfig()
	clusterCfg.Seed = cfg.ClusterSeed
	a.ranker = rank.NewClassifier(e, rank.Config{
		BatchSize:   cfg.EmbedBatchSize,
		Concurrency: cfg.EmbedConcurrency,
		Cluster:     clusterCfg,
	}, log)

	if cfg.CachePath != "" {
		a.cache, err = store.Open(cfg.CachePath)
		if err != nil {
			e.Close()
			return nil, err
		}
		log.Info("outline cache enabled", "path", cfg.CachePath)
	}
	return a, nil
}

func (a *app) cacheModel() string {
	return pipeline.CacheKey(a.embedder.Model(), a.cfg)
}

func (a *app) orchestrator() *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(a.cfg, a.ranker, a.cache, a.cacheModel(), a.log)
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	a.embedder.Close()
}
