package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/outliner/internal/extract"
	"github.com/dgallion1/outliner/internal/outline"
	"github.com/dgallion1/outliner/internal/parser"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates FILE",
	Short: "Show extracted heading candidates and the font size histogram",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidates,
}

var candidatesJSON bool

func init() {
	candidatesCmd.Flags().BoolVar(&candidatesJSON, "json", false, "print machine-readable JSON")
	rootCmd.AddCommand(candidatesCmd)
}

type candidatesOutput struct {
	File       string              `json:"file"`
	BodySize   float64             `json:"body_size"`
	Sizes      []extract.SizeCount `json:"sizes"`
	Candidates []outline.Candidate `json:"candidates"`
}

func runCandidates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := parser.ForFileWith(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext, Logger: log})
	if err != nil {
		return err
	}
	doc, err := p.Parse(f, path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	res := extract.Candidates(doc)
	outp := candidatesOutput{
		File:       filepath.Base(path),
		BodySize:   res.Sizes.BodySize(),
		Sizes:      res.Sizes.Sorted(),
		Candidates: res.Candidates,
	}
	if outp.Candidates == nil {
		outp.Candidates = []outline.Candidate{}
	}

	out := cmd.OutOrStdout()
	if candidatesJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(outp)
	}

	fmt.Fprintln(out, titleStyle.Render(outp.File)+dimStyle.Render(fmt.Sprintf("  %d candidates", len(outp.Candidates))))
	for _, c := range outp.Candidates {
		size := fmt.Sprintf("%5.1f", c.Size)
		if c.Size == outp.BodySize {
			size = dimStyle.Render(size)
		} else {
			size = bodyStyle.Render(size)
		}
		fmt.Fprintf(out, "%s %s  %s\n", dimStyle.Render(fmt.Sprintf("p.%-3d", c.Page)), size, c.Text)
	}

	var hist strings.Builder
	hist.WriteString(titleStyle.Render("font sizes"))
	for _, sc := range outp.Sizes {
		line := fmt.Sprintf("\n%5.1f  %5d  %s", sc.Size, sc.Count, strings.Repeat("#", min(sc.Count, 40)))
		if sc.Size == outp.BodySize {
			line += dimStyle.Render("  body")
		}
		hist.WriteString(line)
	}
	fmt.Fprintln(out, boxStyle.Render(hist.String()))
	return nil
}
