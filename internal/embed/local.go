//go:build cgo && (darwin || (linux && amd64))

package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/backends"
	"github.com/knights-analytics/hugot/pipelines"
)

var errPipelineClosed = errors.New("embedding pipeline closed")

// featureExtractor is the part of a hugot feature extraction pipeline used here.
type featureExtractor interface {
	RunPipeline(inputs []string) (*pipelines.FeatureExtractionOutput, error)
}

type destroyer interface {
	Destroy() error
}

// local runs a sentence-transformer in process. The pipeline is loaded once
// and reused for every document.
type local struct {
	session   destroyer
	pipeline  featureExtractor
	model     string
	batchSize int
	logger    *slog.Logger

	mu  sync.RWMutex
	dim int
}

func newLocal(_ context.Context, cfg Config) (Embedder, error) {
	modelDir, err := ensureModel(cfg)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pcfg := backends.PipelineConfig[*pipelines.FeatureExtractionPipeline]{
		ModelPath: modelDir,
		Name:      "outline-embeddings",
	}
	pipeline, err := hugot.NewPipeline[*pipelines.FeatureExtractionPipeline](session, pcfg)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	cfg.Logger.Info("local embedding model loaded", "path", modelDir, "repo", cfg.ModelRepo)
	return &local{
		session:   session,
		pipeline:  pipeline,
		model:     cfg.ModelRepo,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}, nil
}

// ensureModel returns the directory holding the ONNX model, downloading it
// when allowed.
func ensureModel(cfg Config) (string, error) {
	root := cfg.ModelPath
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(home, ".outliner", "models")
	}

	candidates := []string{
		root,
		filepath.Join(root, strings.ReplaceAll(cfg.ModelRepo, "/", "_")),
	}
	for _, dir := range candidates {
		if _, err := os.Stat(filepath.Join(dir, "onnx", "model.onnx")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "model.onnx")); err == nil {
			return dir, nil
		}
	}

	if !cfg.AllowDownload {
		return "", fmt.Errorf("no model found under %s and download disabled", root)
	}

	cfg.Logger.Info("downloading embedding model", "repo", cfg.ModelRepo, "dir", root)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	path, err := hugot.DownloadModel(cfg.ModelRepo, root, opts)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", cfg.ModelRepo, err)
	}
	return path, nil
}

func (l *local) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (l *local) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+l.batchSize, len(texts))

		if err := l.runBatch(texts[start:end], out[start:end]); err != nil {
			return nil, fmt.Errorf("run pipeline [%d:%d]: %w", start, end, err)
		}
	}

	if len(out[0]) > 0 {
		l.mu.Lock()
		l.dim = len(out[0])
		l.mu.Unlock()
	}
	return out, nil
}

// runBatch holds the read lock for the whole inference so Close cannot
// destroy the session underneath it.
func (l *local) runBatch(texts []string, out [][]float32) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.pipeline == nil {
		return errPipelineClosed
	}
	res, err := l.pipeline.RunPipeline(texts)
	if err != nil {
		return err
	}
	if len(res.Embeddings) != len(texts) {
		return fmt.Errorf("pipeline returned %d embeddings for %d inputs", len(res.Embeddings), len(texts))
	}
	copy(out, res.Embeddings)
	return nil
}

func (l *local) Dimension() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dim
}

func (l *local) Model() string { return l.model }

func (l *local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pipeline = nil
	if l.session == nil {
		return nil
	}
	err := l.session.Destroy()
	l.session = nil
	if err != nil {
		l.logger.Warn("destroy hugot session", "error", err)
	}
	return err
}
