package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/themecat/internal/config"
	"github.com/amishk599/themecat/internal/evaluator"
	"github.com/amishk599/themecat/internal/filter"
	"github.com/amishk599/themecat/internal/pipeline"
	"github.com/amishk599/themecat/internal/report"
	"github.com/amishk599/themecat/internal/source"
)

var (
	evalLimit        int
	evalIncludeEmpty bool
	evalNoProgress   bool
	evalNoRateLimit  bool
	evalDryRun       bool
	evalDetails      bool
	evalJSON         bool
	evalNoNotify     bool
	evalMatch        []string
	evalExclude      []string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score extracted themes against ground truth",
	Long: "Extracts themes from labeled reviews, compares them with the ground truth " +
		"column and prints the identification and novel theme rates.",
	RunE: runEvaluate,
}

func init() {
	addEvalFlags(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evalNoProgress, "no-progress", false, "hide the progress bar")
	evaluateCmd.Flags().BoolVar(&evalDetails, "details", false, "print the per-review comparison")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the evaluation as JSON")
	evaluateCmd.Flags().BoolVar(&evalNoNotify, "no-notify", false, "do not send the run summary")
	rootCmd.AddCommand(evaluateCmd)
}

// addEvalFlags registers the flags shared by evaluate, audit and watch.
func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&evalLimit, "limit", "n", 0, "evaluate at most N reviews (0 = all)")
	cmd.Flags().BoolVar(&evalIncludeEmpty, "include-empty", false, "keep reviews whose ground truth is empty")
	cmd.Flags().BoolVar(&evalNoRateLimit, "no-rate-limit", false, "do not pause between reviews")
	cmd.Flags().BoolVar(&evalDryRun, "dry-run", false, "skip LLM calls; every review yields no themes")
	cmd.Flags().StringSliceVar(&evalMatch, "match", nil, "only reviews containing any of these keywords")
	cmd.Flags().StringSliceVar(&evalExclude, "exclude", nil, "skip reviews containing any of these keywords")
}

// newEvalRun opens the source and wires the pipeline. The caller closes
// run.src.
func newEvalRun(ctx context.Context, cfg *config.Config, showProgress bool, logger *slog.Logger) (*evalRun, error) {
	extractor := setupExtractor(cfg, evalDryRun, logger)
	pipe := setupPipeline(cfg, extractor, showProgress, logger)

	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("open review source: %w", err)
	}

	return &evalRun{
		src:          src,
		pipe:         pipe,
		eval:         evaluator.New(logger),
		filter:       filter.NewKeywordFilter(evalMatch, evalExclude),
		modelName:    cfg.LLM.Model,
		sourceName:   sourceLabel(cfg.Source),
		limit:        evalLimit,
		includeEmpty: evalIncludeEmpty,
		batch: pipeline.BatchOptions{
			ShowProgress: showProgress,
			RateLimit:    !evalNoRateLimit,
		},
		logger: logger,
	}, nil
}

type evaluateOutput struct {
	RunID      string                     `json:"run_id"`
	Model      string                     `json:"model"`
	Run        pipeline.RunMetrics        `json:"run"`
	Evaluation evaluator.AggregateMetrics `json:"evaluation"`
	Reviews    []evaluator.ReviewMetrics  `json:"reviews"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, logger := bootstrap()

	ctx, stop := signalContext()
	defer stop()

	showProgress := !evalNoProgress && !evalJSON
	run, err := newEvalRun(ctx, cfg, showProgress, logger)
	if err != nil {
		logger.Error("failed to set up evaluation", "error", err)
		os.Exit(1)
	}
	defer run.src.Close()

	out, err := run.run(ctx)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}

	if evalJSON {
		doc := evaluateOutput{
			RunID:      out.Report.RunID,
			Model:      out.Report.Model,
			Run:        out.Report.Run,
			Evaluation: out.Evaluation.Aggregate,
		}
		for _, r := range out.Evaluation.Reviews {
			doc.Reviews = append(doc.Reviews, r.Metrics)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
	} else {
		if evalDetails {
			fmt.Println(report.RenderReviewEvaluations(out.Evaluation.Reviews))
			fmt.Println()
		}
		fmt.Println(report.RenderEvaluationTable(out.Evaluation.Aggregate))
		fmt.Println()
		fmt.Println(report.RenderRunTable(out.Report.Run))
	}

	if evalNoNotify {
		return nil
	}
	n := setupNotifier(cfg, logger)
	if err := n.Notify(ctx, out.Report); err != nil {
		logger.Error("notification failed", "run_id", out.Report.RunID, "error", err)
	}
	return nil
}
