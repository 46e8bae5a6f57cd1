package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Outline every supported file in a directory",
	Long: `Outline every supported file directly inside the input directory and
write <name>.json for each into the output directory. A document that cannot
be processed is logged and skipped.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

var (
	batchInput  string
	batchOutput string
)

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "input directory (default $OUTLINER_INPUT_DIR or /app/input)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output directory (default $OUTLINER_OUTPUT_DIR or /app/output)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchInput != "" {
		cfg.InputDir = batchInput
	}
	if batchOutput != "" {
		cfg.OutputDir = batchOutput
	}
	log := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	orch := a.orchestrator()
	orch.Start(ctx)
	defer orch.Stop()

	log.Info("starting batch", "input", cfg.InputDir, "output", cfg.OutputDir)
	report, err := orch.Batch(ctx, cfg.InputDir, cfg.OutputDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("outliner batch") + "\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%s -> %s", cfg.InputDir, cfg.OutputDir)) + "\n")
	sb.WriteString(successStyle.Render(fmt.Sprintf("%d outlined", len(report.Processed))))
	if len(report.Failed) > 0 {
		sb.WriteString("  " + errorStyle.Render(fmt.Sprintf("%d failed", len(report.Failed))))
		for _, f := range report.Failed {
			sb.WriteString("\n" + errorStyle.Render("  x ") + f.File + dimStyle.Render("  "+f.Error))
		}
	}
	fmt.Fprintln(out, boxStyle.Render(sb.String()))
	return nil
}
