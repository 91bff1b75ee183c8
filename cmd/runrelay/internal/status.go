package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runrelay/runrelay/internal/relay"
)

func NewStatusCmd(cfgPath *string) *cobra.Command {
	var (
		flags   targetFlags
		token   string
		runID   int64
		runURL  string
		logsURL bool
		jobLogs bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the current status of a correlated workflow run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, orch, err := buildRelay(*cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.GitHub.Token == "" {
				return fmt.Errorf("GitHub token is not configured (set RUNRELAY_GITHUB_TOKEN)")
			}

			known := runID
			if known == 0 && runURL != "" {
				known, err = parseRunURLFlag(runURL)
				if err != nil {
					return err
				}
			}

			snap, err := orch.Status(cmd.Context(), flags.resolve(cfg), token, known, relay.StatusOptions{
				IncludeLogsArchive: logsURL,
				IncludeJobLogs:     jobLogs,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}

	cmd.Flags().StringVar(&token, "run-id", "", "Correlation token issued at trigger time.")
	cmd.Flags().Int64Var(&runID, "github-run-id", 0, "Known GitHub run id; skips discovery.")
	cmd.Flags().StringVar(&runURL, "github-run-url", "", "GitHub run URL; the id is extracted from it.")
	cmd.Flags().BoolVar(&logsURL, "logs-url", false, "Include the run log archive URL.")
	cmd.Flags().BoolVar(&jobLogs, "job-logs", false, "Include per-job log URLs.")
	cmd.Flags().StringVar(&flags.owner, "owner", "", "Override the target repository owner.")
	cmd.Flags().StringVar(&flags.repo, "repo", "", "Override the target repository name.")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Override the target branch.")
	cmd.Flags().StringVar(&flags.workflow, "workflow", "", "Override the workflow file.")
	_ = cmd.MarkFlagRequired("run-id")

	return cmd
}
