package cli

import (
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"hpic-membership/internal/db"
	"hpic-membership/internal/db/repository"
	"hpic-membership/internal/domain"
)

var runHeader = []string{"ID", "STATUS", "TRIGGER", "AS OF", "MEMBERS", "MONTHS", "ARTIFACT", "ERROR"}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			// Only run history is needed; skip full app wiring.
			metastore, err := db.OpenMetastore(cfg.MetaDBPath)
			if err != nil {
				return err
			}
			defer metastore.Close() //nolint:errcheck
			if err := db.RunMigrations(metastore); err != nil {
				return err
			}

			runs, err := repository.NewRunRepo(metastore).ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				views := make([]map[string]any, len(runs))
				for i := range runs {
					views[i] = runToMap(&runs[i])
				}
				return printJSON(cmd.OutOrStdout(), views)
			}

			rows := make([][]string, len(runs))
			for i := range runs {
				rows[i] = runRow(&runs[i])
			}
			return printTable(cmd.OutOrStdout(), runHeader, rows)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func runRow(run *domain.PipelineRun) []string {
	return []string{
		run.ID,
		string(run.Status),
		string(run.TriggerType),
		run.AsOf.String(),
		strconv.Itoa(run.MembersExtracted),
		strconv.Itoa(run.MonthsPublished),
		strDeref(run.ArtifactPath),
		strDeref(run.ErrorMessage),
	}
}

func runToMap(run *domain.PipelineRun) map[string]any {
	m := map[string]any{
		"id":                run.ID,
		"status":            run.Status,
		"trigger_type":      run.TriggerType,
		"as_of":             run.AsOf.String(),
		"members_extracted": run.MembersExtracted,
		"months_published":  run.MonthsPublished,
		"created_at":        run.CreatedAt,
	}
	if run.StartedAt != nil {
		m["started_at"] = run.StartedAt
	}
	if run.FinishedAt != nil {
		m["finished_at"] = run.FinishedAt
	}
	if run.ArtifactPath != nil {
		m["artifact_path"] = *run.ArtifactPath
	}
	if run.ArtifactSHA256 != nil {
		m["artifact_sha256"] = *run.ArtifactSHA256
	}
	if run.ErrorMessage != nil {
		m["error_message"] = *run.ErrorMessage
	}
	return m
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
