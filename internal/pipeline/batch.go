package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/outliner/internal/parser"
	"github.com/dgallion1/outliner/internal/render"
)

// Failure names a document that produced no output.
type Failure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BatchReport summarises a directory run.
type BatchReport struct {
	Processed []string  `json:"processed"`
	Failed    []Failure `json:"failed"`
}

// Batch outlines every supported file directly inside inDir, in name order,
// and writes <base>.json into outDir for each one that succeeds. A failing
// document is reported and skipped; it never stops the run.
func (o *Orchestrator) Batch(ctx context.Context, inDir, outDir string) (BatchReport, error) {
	report := BatchReport{Processed: []string{}, Failed: []Failure{}}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return report, fmt.Errorf("read input dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	// os.ReadDir returns entries sorted by filename.
	var jobs []*Job
	for _, e := range entries {
		if !e.Type().IsRegular() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		path := filepath.Join(inDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			o.log.Error("read input failed", "filename", e.Name(), "error", err)
			report.Failed = append(report.Failed, Failure{File: e.Name(), Error: err.Error()})
			continue
		}
		job := NewJob(e.Name(), data)
		if err := o.Enqueue(ctx, job); err != nil {
			return report, fmt.Errorf("enqueue %s: %w", e.Name(), err)
		}
		jobs = append(jobs, job)
	}

	for _, job := range jobs {
		if err := o.Wait(ctx, job); err != nil {
			return report, err
		}
		snap := job.Snapshot()
		result, ok := job.Result()
		if !snap.Status.Succeeded() || !ok {
			report.Failed = append(report.Failed, Failure{File: job.Filename, Error: strings.Join(snap.Errors, "; ")})
			continue
		}

		data, err := render.JSON(result)
		if err != nil {
			report.Failed = append(report.Failed, Failure{File: job.Filename, Error: err.Error()})
			continue
		}
		outPath := filepath.Join(outDir, OutputName(job.Filename))
		if err := writeFileAtomic(outPath, data); err != nil {
			o.log.Error("write output failed", "job_id", job.ID, "filename", job.Filename, "error", err)
			report.Failed = append(report.Failed, Failure{File: job.Filename, Error: err.Error()})
			continue
		}
		o.log.Info("wrote outline", "job_id", job.ID, "filename", job.Filename, "output", outPath)
		report.Processed = append(report.Processed, job.Filename)
	}

	return report, nil
}

// OutputName maps an input filename to its result file name.
func OutputName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
