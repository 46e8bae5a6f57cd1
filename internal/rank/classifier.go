// Package rank assigns heading levels by clustering candidate embeddings.
package rank

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/outliner/internal/cluster"
	"github.com/dgallion1/outliner/internal/embed"
	"github.com/dgallion1/outliner/internal/outline"
)

// Config controls embedding fan-out and clustering.
type Config struct {
	BatchSize   int // Texts per embedder call
	Concurrency int // Parallel embedder calls per document
	Cluster     cluster.Config
}

func DefaultConfig() Config {
	return Config{BatchSize: 32, Concurrency: 4, Cluster: cluster.DefaultConfig()}
}

// Classifier embeds candidate texts and partitions them into at most three
// levels. It holds no per-document state and is safe for concurrent use.
type Classifier struct {
	embedder embed.Embedder
	cfg      Config
	logger   *slog.Logger
}

func NewClassifier(e embed.Embedder, cfg Config, logger *slog.Logger) *Classifier {
	d := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = d.BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}
	if cfg.Cluster.K <= 0 || cfg.Cluster.K > len(outline.Levels) {
		cfg.Cluster.K = len(outline.Levels)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{embedder: e, cfg: cfg, logger: logger}
}

// Rank returns one heading per candidate in input order. Cluster index i
// maps to outline.Levels[i]. With fewer candidates than levels, k shrinks
// to the candidate count.
func (c *Classifier) Rank(ctx context.Context, cands []outline.Candidate) ([]outline.RankedHeading, error) {
	if len(cands) == 0 {
		return []outline.RankedHeading{}, nil
	}

	vectors, err := c.embedAll(ctx, cands)
	if err != nil {
		return nil, err
	}

	ccfg := c.cfg.Cluster
	ccfg.K = min(ccfg.K, len(cands))
	res, err := cluster.Fit(vectors, ccfg)
	if err != nil {
		return nil, fmt.Errorf("cluster %d embeddings: %w", len(vectors), err)
	}

	out := make([]outline.RankedHeading, len(cands))
	for i, cand := range cands {
		level, err := outline.LevelForCluster(res.Labels[i])
		if err != nil {
			return nil, err
		}
		out[i] = outline.RankedHeading{Level: level, Text: cand.Text, Page: cand.Page}
	}

	c.logger.Debug("ranked candidates",
		"candidates", len(cands),
		"k", ccfg.K,
		"inertia", res.Inertia,
		"iterations", res.Iterations,
	)
	return out, nil
}

// embedAll embeds every candidate in batches with bounded parallelism and
// returns the vectors in candidate order once all batches are done.
func (c *Classifier) embedAll(ctx context.Context, cands []outline.Candidate) ([][]float64, error) {
	vectors := make([][]float64, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for start := 0; start < len(cands); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(cands))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = cands[start+i].Text
			}
			vecs, err := c.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed candidates [%d:%d]: %w", start, end, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
			}
			for i, v := range vecs {
				vectors[start+i] = embed.Float64s(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
