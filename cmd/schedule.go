package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the acquisition scheduler until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cmd.Context(), cfg, Version)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScheduler(ctx, app, runNow)
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one acquisition tick before waiting for the schedule")
	return cmd
}

func runScheduler(ctx context.Context, app *bootstrap.App, runNow bool) error {
	sched, err := app.NewScheduler()
	if err != nil {
		return err
	}

	metricsErr := make(chan error, 1)
	if addr := app.Config.Metrics.Address; addr != "" {
		go func() { metricsErr <- app.ServeMetrics(ctx, addr) }()
	}

	if runNow {
		tick := sched.RunNow(ctx)
		app.Logger.Info("Initial tick finished",
			logger.String("date", tick.Date.String()),
			logger.Bool("skipped", tick.Skipped),
			logger.String("reason", string(tick.Result.Reason)),
		)
	}

	sched.Start(ctx)

	select {
	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received")
	case err = <-metricsErr:
		if err != nil {
			app.Logger.Error("Metrics listener failed", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if stopErr := sched.Stop(shutdownCtx); stopErr != nil {
		return stopErr
	}
	return err
}
