package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/outliner/internal/extract"
	"github.com/dgallion1/outliner/internal/outline"
	"github.com/dgallion1/outliner/internal/parser"
	"github.com/dgallion1/outliner/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	ranker     outline.Ranker
	cache      *store.Store
	model      string
	parserOpts parser.Options
	log        *slog.Logger
}

// NewWorker builds a worker. cache may be nil; model keys cached results.
func NewWorker(ranker outline.Ranker, cache *store.Store, model string, popts parser.Options, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if popts.Logger == nil {
		popts.Logger = log
	}
	return &Worker{
		ranker:     ranker,
		cache:      cache,
		model:      model,
		parserOpts: popts,
		log:        log,
	}
}

// Process runs parse, extract and rank for a job. Failures are recorded on
// the job and never returned.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing document", "panic", r)
			job.AddError(fmt.Sprintf("panic: %v", r))
			job.SetStatus(StatusFailed, job.Snapshot().Phase)
		}
		// Input bytes are not needed once the job is finished.
		job.SetFileData(nil)
	}()

	data := job.FileData()
	job.SetContentHash(ContentHashHex(data))

	// Phase 0: cache lookup
	if w.cache != nil {
		if e, ok, err := w.cache.Get(ctx, job.ContentHash, w.model); err != nil {
			log.Warn("cache lookup failed, proceeding", "error", err)
		} else if ok {
			log.Info("outline served from cache", "headings", len(e.Outline.Outline))
			job.SetExtraction(e.Candidates, e.BodySize, e.Sizes)
			job.SetResult(e.Outline)
			job.SetStatus(StatusCached, "done")
			return
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFileWith(job.Filename, w.parserOpts)
	if err != nil {
		w.fail(log, job, "parsing", "unsupported format", err)
		return
	}
	doc, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", "parse failed", err)
		return
	}
	log.Debug("parsed document", "pages", len(doc.Pages), "lines", doc.LineCount())

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	res := extract.Candidates(doc)
	bodySize, sizes := res.Sizes.BodySize(), res.Sizes.Sorted()
	job.SetExtraction(len(res.Candidates), bodySize, sizes)
	log.Info("extracted candidates", "candidates", len(res.Candidates), "body_size", bodySize)

	// Phase 3: Rank
	job.SetStatus(StatusRanking, "ranking")
	o, err := outline.Assemble(ctx, res.Candidates, w.ranker)
	if err != nil {
		w.fail(log, job, "ranking", "ranking failed", err)
		return
	}

	if w.cache != nil {
		entry := store.Entry{Outline: o, Candidates: len(res.Candidates), BodySize: bodySize, Sizes: sizes}
		if err := w.cache.Put(ctx, job.ContentHash, w.model, entry); err != nil {
			log.Warn("cache write failed", "error", err)
		}
	}

	job.SetResult(o)
	job.SetStatus(StatusCompleted, "done")
	log.Info("outline complete", "title", o.Title, "headings", len(o.Outline))
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase, msg string, err error) {
	log.Error(msg, "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("%s: %s", phase, err))
	job.SetStatus(StatusFailed, phase)
}
