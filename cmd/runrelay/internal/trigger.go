package internal

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func NewTriggerCmd(cfgPath *string) *cobra.Command {
	var (
		flags       targetFlags
		repoURL     string
		callbackURL string
		token       string
	)

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Dispatch a workflow run and wait for it to become discoverable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, orch, err := buildRelay(*cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.GitHub.Token == "" {
				return fmt.Errorf("GitHub token is not configured (set RUNRELAY_GITHUB_TOKEN)")
			}
			if token == "" {
				token = uuid.NewString()
			}

			inputs := map[string]interface{}{
				"target_repo_url": repoURL,
				"correlation_id":  token,
			}
			if callbackURL != "" {
				inputs["callback_url"] = callbackURL
			}

			outcome, err := orch.Trigger(cmd.Context(), flags.resolve(cfg), inputs, token)
			if err != nil {
				return fmt.Errorf("trigger failed (token %s): %w", token, err)
			}
			return printJSON(cmd.OutOrStdout(), outcome)
		},
	}

	cmd.Flags().StringVar(&repoURL, "repo-url", "", "Repository URL passed to the workflow as target_repo_url.")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "Optional callback URL passed to the workflow.")
	cmd.Flags().StringVar(&token, "token", "", "Correlation token; generated when omitted.")
	cmd.Flags().StringVar(&flags.owner, "owner", "", "Override the target repository owner.")
	cmd.Flags().StringVar(&flags.repo, "repo", "", "Override the target repository name.")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Override the target branch.")
	cmd.Flags().StringVar(&flags.workflow, "workflow", "", "Override the workflow file.")
	_ = cmd.MarkFlagRequired("repo-url")

	return cmd
}
