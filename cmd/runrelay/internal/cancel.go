package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runrelay/runrelay/internal/gh"
)

func NewCancelCmd(cfgPath *string) *cobra.Command {
	var (
		flags  targetFlags
		token  string
		runID  int64
		runURL string
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Request cancellation of a correlated workflow run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, orch, err := buildRelay(*cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.GitHub.Token == "" {
				return fmt.Errorf("GitHub token is not configured (set RUNRELAY_GITHUB_TOKEN)")
			}
			if token == "" && runID == 0 && runURL == "" {
				return fmt.Errorf("one of --run-id, --github-run-id or --github-run-url is required")
			}

			outcome, err := orch.Cancel(cmd.Context(), flags.resolve(cfg), token, runID, runURL)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), outcome)
		},
	}

	cmd.Flags().StringVar(&token, "run-id", "", "Correlation token issued at trigger time.")
	cmd.Flags().Int64Var(&runID, "github-run-id", 0, "Known GitHub run id; wins over URL and discovery.")
	cmd.Flags().StringVar(&runURL, "github-run-url", "", "GitHub run URL; the id is extracted from it.")
	cmd.Flags().StringVar(&flags.owner, "owner", "", "Override the target repository owner.")
	cmd.Flags().StringVar(&flags.repo, "repo", "", "Override the target repository name.")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Override the target branch.")
	cmd.Flags().StringVar(&flags.workflow, "workflow", "", "Override the workflow file.")

	return cmd
}

func parseRunURLFlag(raw string) (int64, error) {
	id, err := gh.ParseRunURL(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --github-run-url: %w", err)
	}
	return id, nil
}
