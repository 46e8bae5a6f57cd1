package embed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Truncating cuts every input to a bounded token count before delegating.
type Truncating struct {
	Embedder
	maxTokens int
}

func NewTruncating(e Embedder, maxTokens int) *Truncating {
	return &Truncating{Embedder: e, maxTokens: maxTokens}
}

func (t *Truncating) Embed(ctx context.Context, text string) ([]float32, error) {
	return t.Embedder.Embed(ctx, Truncate(text, t.maxTokens))
}

// Unwrap returns the embedder being truncated for.
func (t *Truncating) Unwrap() Embedder { return t.Embedder }

func (t *Truncating) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	cut := make([]string, len(texts))
	for i, s := range texts {
		cut[i] = Truncate(s, t.maxTokens)
	}
	return t.Embedder.EmbedBatch(ctx, cut)
}

// Cached memoises vectors by input text in a bounded LRU.
type Cached struct {
	Embedder
	cache  *lru.Cache[string, []float32]
	hits   atomic.Int64
	misses atomic.Int64
}

func NewCached(e Embedder, size int) (*Cached, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Cached{Embedder: e, cache: cache}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)
	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, v)
	return v, nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	c.hits.Add(int64(len(texts) - len(missIdx)))
	c.misses.Add(int64(len(missIdx)))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.Embedder.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		c.cache.Add(missTexts[j], vecs[j])
	}
	return out, nil
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

func (c *Cached) Stats() CacheStats {
	return CacheStats{Size: c.cache.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Instrumented records the latency of every call.
type Instrumented struct {
	Embedder
	stats *LatencyStats
}

func NewInstrumented(e Embedder, window time.Duration) *Instrumented {
	return &Instrumented{Embedder: e, stats: NewLatencyStats(window)}
}

func (in *Instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	v, err := in.Embedder.Embed(ctx, text)
	in.stats.Record(time.Since(start), 1)
	return v, err
}

func (in *Instrumented) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	v, err := in.Embedder.EmbedBatch(ctx, texts)
	in.stats.Record(time.Since(start), len(texts))
	return v, err
}

// Report is the embedder summary served by the stats endpoint.
type Report struct {
	Model     string        `json:"model"`
	Dimension int           `json:"dimension"`
	Latency   StatsSnapshot `json:"latency"`
	Cache     *CacheStats   `json:"cache,omitempty"`
}

func (in *Instrumented) Report() Report {
	r := Report{
		Model:     in.Model(),
		Dimension: in.Dimension(),
		Latency:   in.stats.Snapshot(),
	}
	if c := findCached(in.Embedder); c != nil {
		s := c.Stats()
		r.Cache = &s
	}
	return r
}

// findCached walks Unwrap chains looking for the cache layer.
func findCached(e Embedder) *Cached {
	for e != nil {
		if c, ok := e.(*Cached); ok {
			return c
		}
		u, ok := e.(interface{ Unwrap() Embedder })
		if !ok {
			return nil
		}
		e = u.Unwrap()
	}
	return nil
}
