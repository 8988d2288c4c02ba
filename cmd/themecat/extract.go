package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/themecat/internal/filter"
	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/pipeline"
	"github.com/amishk599/themecat/internal/report"
	"github.com/amishk599/themecat/internal/source"
)

var (
	extractLimit       int
	extractNoProgress  bool
	extractNoRateLimit bool
	extractReview      string
	extractDryRun      bool
	extractJSON        bool
	extractMatch       []string
	extractExclude     []string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract themes from reviews",
	Long: "Runs every review from the configured source (or a single --review) through " +
		"the LLM and prints the themes found plus run metrics.",
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractLimit, "limit", "n", 0, "process at most N reviews (0 = all)")
	extractCmd.Flags().BoolVar(&extractNoProgress, "no-progress", false, "hide the progress bar")
	extractCmd.Flags().BoolVar(&extractNoRateLimit, "no-rate-limit", false, "do not pause between reviews")
	extractCmd.Flags().StringVar(&extractReview, "review", "", "extract themes from this text instead of the source")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "skip LLM calls; every review yields no themes")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print results as JSON")
	extractCmd.Flags().StringSliceVar(&extractMatch, "match", nil, "only reviews containing any of these keywords")
	extractCmd.Flags().StringSliceVar(&extractExclude, "exclude", nil, "skip reviews containing any of these keywords")
	rootCmd.AddCommand(extractCmd)
}

type extractOutput struct {
	Reviews []extractedReview   `json:"reviews"`
	Metrics pipeline.RunMetrics `json:"metrics"`
}

type extractedReview struct {
	Review string `json:"review"`
	model.ExtractionResult
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger := bootstrap()

	ctx, stop := signalContext()
	defer stop()

	started := time.Now()
	extractor := setupExtractor(cfg, extractDryRun, logger)
	pipe := setupPipeline(cfg, extractor, !extractNoProgress && !extractJSON, logger)

	var reviews []string
	sourceName := "command line"
	if extractReview != "" {
		reviews = []string{extractReview}
	} else {
		src, err := source.Open(ctx, cfg.Source)
		if err != nil {
			logger.Error("failed to open review source", "error", err)
			os.Exit(1)
		}
		defer src.Close()

		reviews, err = src.Reviews(ctx, extractLimit)
		if err != nil {
			logger.Error("failed to load reviews", "error", err)
			os.Exit(1)
		}
		reviews = filter.NewKeywordFilter(extractMatch, extractExclude).Reviews(reviews)
		sourceName = sourceLabel(cfg.Source)
	}
	logger.Info("reviews loaded", "count", len(reviews), "source", sourceName)

	var results []model.ExtractionResult
	if len(reviews) == 1 {
		results = []model.ExtractionResult{pipe.ProcessReview(ctx, reviews[0])}
	} else {
		results = pipe.ProcessBatch(ctx, reviews, pipeline.BatchOptions{
			ShowProgress: !extractNoProgress && !extractJSON,
			RateLimit:    !extractNoRateLimit,
		})
	}
	reviews = reviews[:len(results)]

	if extractJSON {
		out := extractOutput{Metrics: pipe.Metrics()}
		for i, r := range results {
			out.Reviews = append(out.Reviews, extractedReview{Review: reviews[i], ExtractionResult: r})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(report.RenderExtractions(reviews, results))
	fmt.Println()
	fmt.Println(report.RenderRunTable(pipe.Metrics()))

	rep := extractionReport(cfg.LLM.Model, sourceName, started, pipe.Metrics())
	logger.Info("extraction complete", "run_id", rep.RunID, "summary", rep.Summary(), "duration", rep.Duration.Round(time.Millisecond))
	return nil
}
