package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/outliner/internal/config"
	"github.com/dgallion1/outliner/internal/outline"
	"github.com/dgallion1/outliner/internal/parser"
	"github.com/dgallion1/outliner/internal/store"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("pipeline stopped")
)

// CacheKey names the settings a cached outline depends on besides the file
// bytes: the embedding model, the clustering seed, the embedder's token
// limit and whether PDFs may fall back to pdftotext.
func CacheKey(model string, cfg config.Config) string {
	key := fmt.Sprintf("%s@seed%d/tok%d", model, cfg.ClusterSeed, cfg.EmbedMaxTokens)
	if cfg.PDFFallbackPdftotext {
		key += "/pdftotext"
	}
	return key
}

// Orchestrator manages the document pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	ranker outline.Ranker
	cache  *store.Store
	model  string
	log    *slog.Logger
	cfg    config.Config

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. cache may be nil. model identifies
// the embedding model in cache keys.
func NewOrchestrator(cfg config.Config, ranker outline.Ranker, cache *store.Store, model string, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	cfg.WorkerCount = workers
	queueSize := cfg.MaxQueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	cfg.MaxQueueSize = queueSize
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, queueSize),
		ranker: ranker,
		cache:  cache,
		model:  model,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	popts := parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext, Logger: o.log}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.ranker, o.cache, o.model, popts, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Job store and cache cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				o.pruneCache(workerCtx)
			}
		}
	}()
}

func (o *Orchestrator) pruneCache(ctx context.Context) {
	if o.cache == nil || o.cfg.CacheMaxAge <= 0 {
		return
	}
	n, err := o.cache.Prune(ctx, o.cfg.CacheMaxAge)
	if err != nil {
		o.log.Warn("cache prune failed", "error", err)
		return
	}
	if n > 0 {
		o.log.Info("pruned cached outlines", "removed", n)
	}
}

// Stop shuts down the pipeline. Jobs still queued are marked failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for job := range o.queue {
		job.AddError("pipeline stopped before processing")
		job.SetStatus(StatusFailed, "shutdown")
	}
}

// Submit queues a job without blocking.
func (o *Orchestrator) Submit(job *Job) error {
	sent, err := o.trySubmit(job)
	if err != nil {
		return err
	}
	if !sent {
		job.AddError("job queue is full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
	return nil
}

// Enqueue queues a job, waiting for queue space or ctx.
func (o *Orchestrator) Enqueue(ctx context.Context, job *Job) error {
	for {
		sent, err := o.trySubmit(job)
		if err != nil || sent {
			return err
		}
		select {
		case <-ctx.Done():
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "queued")
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (o *Orchestrator) trySubmit(job *Job) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return false, ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return true, nil
	default:
		return false, nil
	}
}

// Wait blocks until the job finishes or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, job *Job) error {
	select {
	case <-job.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Model returns the embedding model name used for cache keys.
func (o *Orchestrator) Model() string {
	return o.model
}
