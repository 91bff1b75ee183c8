package internal

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/runrelay/runrelay/internal/config"
	"github.com/runrelay/runrelay/internal/discovery"
	"github.com/runrelay/runrelay/internal/gh"
	"github.com/runrelay/runrelay/internal/logging"
	"github.com/runrelay/runrelay/internal/relay"
	"github.com/runrelay/runrelay/internal/target"
)

// buildRelay wires config, logger, GitHub client, discovery engine and
// orchestrator for a command invocation.
func buildRelay(cfgPath string) (*config.Config, *zap.Logger, *relay.Orchestrator, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(cfg.Log.Level)

	client, err := gh.New(cfg.GitHub.Token, cfg.GitHub.APIURL)
	if err != nil {
		return nil, nil, nil, err
	}

	var matcher discovery.Matcher
	if cfg.Matcher.Expr != "" {
		matcher, err = discovery.NewCELMatcher(cfg.Matcher.Expr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid matcher expression: %w", err)
		}
	}

	orch := relay.New(client, discovery.NewEngine(matcher), log, relay.Settings{
		DispatchMaxAttempts: cfg.Dispatch.MaxAttempts,
		DispatchBackoffStep: cfg.Dispatch.BackoffStep,
		DispatchLookback:    cfg.Dispatch.Lookback,
		StatusLookback:      cfg.Status.Lookback,
	})
	return cfg, log, orch, nil
}

// targetFlags are the repository override flags shared by the trigger,
// status and cancel commands. CLI invocations are local execution, so the
// override gate is always open for them.
type targetFlags struct {
	owner    string
	repo     string
	branch   string
	workflow string
}

func (f *targetFlags) resolve(cfg *config.Config) target.Target {
	return target.Resolve(
		target.Defaults{
			Owner:        cfg.Target.Owner,
			Repo:         cfg.Target.Repo,
			Slug:         cfg.Target.Slug,
			Branch:       cfg.Target.Branch,
			WorkflowFile: cfg.Target.WorkflowFile,
		},
		target.Overrides{
			Owner:        f.owner,
			Repo:         f.repo,
			Branch:       f.branch,
			WorkflowFile: f.workflow,
		},
		true,
	)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
