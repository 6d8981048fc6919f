package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hpic-membership/internal/app"
	"hpic-membership/internal/service/pipeline"
)

func newScheduleCmd() *cobra.Command {
	var cronOverride string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on its cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.PipelineFile = flagOrEnv(cmd.Flags(), "pipeline", cfg.PipelineFile)
			if err := resolveCRMAPIKey(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if cronOverride != "" {
				a.Scheduler = pipeline.NewScheduler(a.Service, cronOverride, logger)
			}
			if err := a.Scheduler.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			logger.Info("shutting down")
			a.Scheduler.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&cronOverride, "cron", "", "Override the schedule from the pipeline file")
	cmd.Flags().String("pipeline", "", "Pipeline definition file (default: PIPELINE_FILE or pipeline.yaml)")
	return cmd
}
