package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/runrelay/runrelay/internal/errors"
	"github.com/runrelay/runrelay/internal/gh"
	"github.com/runrelay/runrelay/internal/metrics"
	"github.com/runrelay/runrelay/internal/target"
)

// Snapshot is the caller-facing projection of a run's current state, built
// fresh on every status call.
type Snapshot struct {
	Token          string     `json:"runId"`
	RunID          *int64     `json:"githubRunId"`
	Status         string     `json:"status"`
	Conclusion     *string    `json:"conclusion"`
	RunURL         string     `json:"runUrl,omitempty"`
	StartedAt      *time.Time `json:"startTime,omitempty"`
	CompletedAt    *time.Time `json:"endTime,omitempty"`
	LogsArchiveURL string     `json:"logsArchiveUrl,omitempty"`
	JobLogs        []JobLog   `json:"jobLogs,omitempty"`
}

// JobLog is the per-job log enrichment of a snapshot.
type JobLog struct {
	JobID      int64  `json:"jobId"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion,omitempty"`
	LogsURL    string `json:"logsUrl,omitempty"`
}

// StatusOptions enable opt-in, best-effort log enrichment. Enrichment
// failures are omitted from the snapshot, never fail the call.
type StatusOptions struct {
	IncludeLogsArchive bool
	IncludeJobLogs     bool
}

// Status reports the current state of the run correlated with token.
//
// A supplied knownRunID is trusted without re-validation against the token.
// Otherwise exactly one discovery attempt is made against the status-side
// lookback window: no loop, no waiting. Absence of a matching run is the
// expected "pending" state, not an error.
func (o *Orchestrator) Status(ctx context.Context, t target.Target, token string, knownRunID int64, opts StatusOptions) (Snapshot, error) {
	if token == "" && knownRunID == 0 {
		return Snapshot{}, errors.New(errors.CodeInput, "runId is required")
	}

	runID := knownRunID
	if runID == 0 {
		run, err := o.discoverOnce(ctx, t, token, o.settings.StatusLookback)
		if err != nil {
			metrics.StatusRequests.WithLabelValues("error").Inc()
			return Snapshot{}, err
		}
		if run == nil {
			metrics.StatusRequests.WithLabelValues("pending").Inc()
			return Snapshot{Token: token, Status: StatusPending}, nil
		}
		runID = run.ID
	}

	run, err := o.api.GetRun(ctx, t, runID)
	if err != nil {
		metrics.StatusRequests.WithLabelValues("error").Inc()
		return Snapshot{}, err
	}

	snap := snapshotOf(token, run)
	o.enrichLogs(ctx, t, run.ID, opts, &snap)
	metrics.StatusRequests.WithLabelValues("resolved").Inc()
	return snap, nil
}

func snapshotOf(token string, run gh.Run) Snapshot {
	snap := Snapshot{
		Token:  token,
		RunID:  &run.ID,
		Status: run.Status,
		RunURL: run.HTMLURL,
	}
	if snap.Status == "" {
		snap.Status = StatusPending
	}
	if run.Conclusion != "" {
		snap.Conclusion = &run.Conclusion
	}
	if !run.StartedAt.IsZero() {
		snap.StartedAt = &run.StartedAt
	}
	if run.Status == gh.StatusCompleted && !run.UpdatedAt.IsZero() {
		snap.CompletedAt = &run.UpdatedAt
	}
	return snap
}

func (o *Orchestrator) enrichLogs(ctx context.Context, t target.Target, runID int64, opts StatusOptions, snap *Snapshot) {
	if opts.IncludeLogsArchive {
		url, err := o.api.RunLogsURL(ctx, t, runID)
		if err != nil {
			o.log.Debug("log archive URL unavailable", zap.Int64("run_id", runID), zap.Error(err))
		} else {
			snap.LogsArchiveURL = url
		}
	}

	if !opts.IncludeJobLogs {
		return
	}
	jobs, err := o.api.ListJobs(ctx, t, runID)
	if err != nil {
		o.log.Debug("job listing unavailable", zap.Int64("run_id", runID), zap.Error(err))
		return
	}
	for _, job := range jobs {
		jl := JobLog{
			JobID:      job.ID,
			Name:       job.Name,
			Status:     job.Status,
			Conclusion: job.Conclusion,
		}
		if url, err := o.api.JobLogsURL(ctx, t, job.ID); err == nil {
			jl.LogsURL = url
		}
		snap.JobLogs = append(snap.JobLogs, jl)
	}
}

// CancelOutcome reports an accepted cancellation.
type CancelOutcome struct {
	RunID  int64  `json:"githubRunId"`
	RunURL string `json:"runUrl"`
}

// Cancel requests cancellation of the run correlated with token. The run id
// is resolved deterministically: an explicit id wins over one parsed from
// runURL, which wins over a single discovery attempt. Acceptance by GitHub
// is reported immediately; the run's own transition to a cancelled
// conclusion is observed through later status calls.
func (o *Orchestrator) Cancel(ctx context.Context, t target.Target, token string, knownRunID int64, runURL string) (CancelOutcome, error) {
	runID := knownRunID
	htmlURL := ""

	if runID == 0 && runURL != "" {
		id, err := gh.ParseRunURL(runURL)
		if err != nil {
			o.log.Warn("ignoring unparsable run URL", zap.String("url", runURL), zap.Error(err))
		} else {
			runID = id
			htmlURL = runURL
		}
	}

	if runID == 0 {
		if token == "" {
			metrics.Cancellations.WithLabelValues("error").Inc()
			return CancelOutcome{}, errors.New(errors.CodeInput,
				"could not resolve a run id: provide githubRunId, githubRunUrl, or a runId token")
		}
		run, err := o.discoverOnce(ctx, t, token, o.settings.StatusLookback)
		if err != nil {
			metrics.Cancellations.WithLabelValues("error").Inc()
			return CancelOutcome{}, err
		}
		if run == nil {
			metrics.Cancellations.WithLabelValues("error").Inc()
			return CancelOutcome{}, errors.
				Newf(errors.CodeInput, "no run matching token %q found", token).
				WithHint("the run may not be visible yet; check status first")
		}
		runID = run.ID
		htmlURL = run.HTMLURL
	}

	if err := o.api.CancelRun(ctx, t, runID); err != nil {
		metrics.Cancellations.WithLabelValues("error").Inc()
		return CancelOutcome{}, err
	}

	if htmlURL == "" {
		htmlURL = t.RunURL(runID)
	}
	metrics.Cancellations.WithLabelValues("accepted").Inc()
	o.log.Info("cancellation accepted", zap.Int64("run_id", runID), zap.String("repo", t.Slug()))
	return CancelOutcome{RunID: runID, RunURL: htmlURL}, nil
}
