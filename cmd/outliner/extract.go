package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outliner/internal/parser"
	"github.com/dgallion1/outliner/internal/pipeline"
	"github.com/dgallion1/outliner/internal/render"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Print the outline of a single document",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var extractFormat string

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", render.FormatJSON, "output format: json, md or html")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	popts := parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext, Logger: log}
	w := pipeline.NewWorker(a.ranker, a.cache, a.cacheModel(), popts, log)
	job := pipeline.NewJob(filepath.Base(path), data)
	w.Process(cmd.Context(), job)

	o, ok := job.Result()
	if !ok {
		return fmt.Errorf("%s: %s", path, strings.Join(job.Snapshot().Errors, "; "))
	}
	body, _, err := render.Render(o, extractFormat)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}
