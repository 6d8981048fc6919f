package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hpic-membership/internal/app"
	"hpic-membership/internal/config"
	"hpic-membership/internal/domain"
)

func newRunCmd() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and publish the timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf := domain.MonthOf(time.Now())
			if asOfFlag != "" {
				var err error
				if asOf, err = domain.ParseMonth(asOfFlag); err != nil {
					return err
				}
			}

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

			run, err := a.Service.Run(ctx, domain.TriggerTypeManual, asOf)
			if err != nil {
				return err
			}

			if err := printRun(cmd, run); err != nil {
				return err
			}
			if run.Status != domain.RunStatusSuccess {
				return fmt.Errorf("run %s failed", run.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "Final month of the timeline (YYYY-MM, default: current month)")
	cmd.Flags().String("pipeline", "", "Pipeline definition file (default: PIPELINE_FILE or pipeline.yaml)")
	return cmd
}

// resolveCRMAPIKey prompts for the CRM API key when the URL is configured
// but the key is not. Prompting needs a terminal; otherwise the app layer
// rejects the missing key with a clear error.
func resolveCRMAPIKey(cfg *config.Config) error {
	if cfg.CRMAPIURL == "" || cfg.CRMAPIKey != "" {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	fmt.Fprint(os.Stderr, "CRM API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read CRM API key: %w", err)
	}
	cfg.CRMAPIKey = string(key)
	return nil
}

func printRun(cmd *cobra.Command, run *domain.PipelineRun) error {
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), runToMap(run))
	}
	return printTable(cmd.OutOrStdout(), runHeader, [][]string{runRow(run)})
}
