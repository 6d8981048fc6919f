package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hpic-membership/internal/config"
	"hpic-membership/internal/inspect"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the published artifact with DuckDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			pl, err := config.LoadPipelineFile(flagOrEnv(cmd.Flags(), "pipeline", cfg.PipelineFile))
			if err != nil {
				return err
			}

			insp, err := inspect.Open(cmd.Context(), pl.ArtifactPath)
			if err != nil {
				return err
			}
			defer insp.Close() //nolint:errcheck

			findings, err := insp.Validate(cmd.Context(), pl.Tiers, pl.SourceNames())
			if err != nil {
				return err
			}

			failed := 0
			for _, f := range findings {
				if !f.Passed {
					failed++
				}
			}

			if getOutputFormat(cmd) == "json" {
				if err := printJSON(cmd.OutOrStdout(), findings); err != nil {
					return err
				}
			} else {
				rows := make([][]string, len(findings))
				for i, f := range findings {
					status := "PASS"
					if !f.Passed {
						status = "FAIL"
					}
					rows[i] = []string{f.Check, status, f.Detail}
				}
				if err := printTable(cmd.OutOrStdout(), []string{"CHECK", "RESULT", "DETAIL"}, rows); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed for %s", failed, len(findings), pl.ArtifactPath)
			}
			return nil
		},
	}

	cmd.Flags().String("pipeline", "", "Pipeline definition file (default: PIPELINE_FILE or pipeline.yaml)")
	return cmd
}
