package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/themecat/internal/audit"
	"github.com/amishk599/themecat/internal/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse an evaluation interactively (TUI)",
	Long:  "Evaluates the labeled reviews, shows the theme picker, then launches the split-pane audit view.",
	RunE:  runAuditCmd,
}

func init() {
	addEvalFlags(auditCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, logger := bootstrap()

	ctx, stop := signalContext()
	defer stop()

	// Audit mode runs a TUI and any log output before the alt-screen starts
	// corrupts the display.
	run, err := newEvalRun(ctx, cfg, false, discardLogger())
	if err != nil {
		logger.Error("failed to set up evaluation", "error", err)
		os.Exit(1)
	}
	defer run.src.Close()

	out, err := audit.RunLoader(ctx, "Evaluating reviews with "+cfg.LLM.Model, run.run)
	if errors.Is(err, audit.ErrCancelled) {
		return nil
	}
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(out.Report.Summary())
	runAudit(ctx, audit.RowsFrom(out.Evaluation))
	return nil
}

func runAudit(ctx context.Context, rows []audit.Row) {
	for ctx.Err() == nil {
		options := audit.ThemeOptions(rows)
		choice, err := audit.RunThemePicker(options)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		chosen := options[choice]

		title := "All reviews"
		if chosen.Name != "" {
			title = report.DisplayTheme(chosen.Name)
		}

		wantQuit, err := audit.RunAuditTUI(title, audit.FilterByTheme(rows, chosen.Name))
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
