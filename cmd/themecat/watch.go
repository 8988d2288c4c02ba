package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/themecat/internal/scheduler"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Evaluate on a schedule and notify",
	Long:  "Runs evaluate once immediately and then on every activation of a cron schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	addEvalFlags(watchCmd)
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", `cron expression or descriptor, e.g. "@every 6h" (default: watch.schedule from config)`)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger := bootstrap()

	spec := watchSchedule
	if spec == "" {
		spec = cfg.Watch.Schedule
	}

	ctx, stop := signalContext()
	defer stop()

	run, err := newEvalRun(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to set up evaluation", "error", err)
		os.Exit(1)
	}
	defer run.src.Close()

	n := setupNotifier(cfg, logger)
	job := func(ctx context.Context) error {
		out, err := run.run(ctx)
		if err != nil {
			return err
		}
		return n.Notify(ctx, out.Report)
	}

	sched, err := scheduler.NewScheduler(job, spec, logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
