package cli

import (
	"github.com/spf13/cobra"

	"hpic-membership/internal/config"
	"hpic-membership/internal/inspect"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Query the published artifact with DuckDB",
		Long:  "Runs a SQL statement against the artifact, exposed as the \"timeline\" view.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			res, err := insp.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printTable(cmd.OutOrStdout(), res.Columns, res.Rows)
		},
	}

	cmd.Flags().String("pipeline", "", "Pipeline definition file (default: PIPELINE_FILE or pipeline.yaml)")
	return cmd
}
