package relay

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/runrelay/runrelay/internal/errors"
	"github.com/runrelay/runrelay/internal/metrics"
	"github.com/runrelay/runrelay/internal/poll"
	"github.com/runrelay/runrelay/internal/target"
)

// DispatchOutcome reports a successful dispatch-and-correlate cycle.
type DispatchOutcome struct {
	Token    string `json:"runId"`
	RunID    int64  `json:"githubRunId"`
	RunURL   string `json:"runUrl"`
	Attempts int    `json:"attempts"`
}

// Trigger dispatches the workflow with the correlation token embedded in its
// inputs, then polls for the resulting run until it becomes visible or
// attempts run out.
//
// The dispatch call itself is never retried: a second call would trigger a
// second run. Exhausting discovery is a distinct not-found outcome rather
// than a transport failure; the run likely exists but is not visible yet,
// and the caller is expected to poll status with the same token instead of
// re-dispatching.
func (o *Orchestrator) Trigger(ctx context.Context, t target.Target, inputs map[string]interface{}, token string) (DispatchOutcome, error) {
	if token == "" {
		return DispatchOutcome{}, errors.New(errors.CodeInput, "correlation token is required")
	}

	if err := o.api.Dispatch(ctx, t, inputs); err != nil {
		metrics.Dispatches.WithLabelValues("error").Inc()
		return DispatchOutcome{}, targetNotFound(err, t)
	}
	o.log.Info("workflow dispatched",
		zap.String("token", token),
		zap.String("repo", t.Slug()),
		zap.String("workflow", t.WorkflowFile),
		zap.String("branch", t.Branch),
	)

	var found *DispatchOutcome
	schedule := poll.Linear(o.settings.DispatchMaxAttempts, o.settings.DispatchBackoffStep)
	attempts, err := poll.Until(ctx, schedule, o.sleep, func(attempt int) (bool, error) {
		run, err := o.discoverOnce(ctx, t, token, o.settings.DispatchLookback)
		if err != nil {
			return false, err
		}
		if run == nil {
			o.log.Debug("run not visible yet",
				zap.String("token", token),
				zap.Int("attempt", attempt),
			)
			return false, nil
		}
		found = &DispatchOutcome{
			Token:    token,
			RunID:    run.ID,
			RunURL:   run.HTMLURL,
			Attempts: attempt,
		}
		return true, nil
	})
	if err != nil {
		if stderrors.Is(err, poll.ErrExhausted) {
			metrics.Dispatches.WithLabelValues("not_found").Inc()
			return DispatchOutcome{}, errors.
				Newf(errors.CodeNotFound, "run not found after %d attempts", attempts).
				WithHint("the run may not be visible yet; poll status with the same runId instead of re-triggering")
		}
		metrics.Dispatches.WithLabelValues("error").Inc()
		return DispatchOutcome{}, targetNotFound(err, t)
	}

	metrics.Dispatches.WithLabelValues("found").Inc()
	o.log.Info("run correlated",
		zap.String("token", token),
		zap.Int64("run_id", found.RunID),
		zap.Int("attempts", found.Attempts),
	)
	return *found, nil
}

// targetNotFound reclassifies a GitHub 404 seen during trigger. At this
// point the token has been validated, so a 404 means the repository or
// workflow file does not exist: an upstream failure, not the "run not
// discoverable yet" outcome reserved for exhaustion above.
func targetNotFound(err error, t target.Target) error {
	if !errors.IsCode(err, errors.CodeNotFound) {
		return err
	}
	return errors.Wrap(err, errors.CodeUpstream,
		fmt.Sprintf("workflow %s not found in %s", t.WorkflowFile, t.Slug())).
		WithHint("check the target owner, repo, branch and workflow file")
}
