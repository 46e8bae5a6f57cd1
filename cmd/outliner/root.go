package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "outliner",
	Short: "Infer heading outlines from documents",
	Long: `outliner extracts candidate heading lines from PDFs (and docx, html,
markdown, text), embeds them with a sentence-transformer model and clusters
the embeddings into H1/H2/H3 levels.

Usage:
  outliner batch --input DIR --output DIR
  outliner extract FILE [--format json|md|html]
  outliner candidates FILE
  outliner serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides OUTLINER_CONFIG)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
