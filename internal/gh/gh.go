// Package gh is a thin, credentialed wrapper around the GitHub Actions API.
// Every method is a single network call with no internal retry; failures are
// classified at this boundary (auth vs. not-found vs. transport) and passed
// through the orchestrators unmodified.
package gh

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/runrelay/runrelay/internal/errors"
	"github.com/runrelay/runrelay/internal/target"
)

// Run statuses and conclusions as reported by GitHub Actions.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	ConclusionSuccess   = "success"
	ConclusionFailure   = "failure"
	ConclusionCancelled = "cancelled"
	ConclusionTimedOut  = "timed_out"
)

// Run is a workflow run as listed or fetched from GitHub. Runs are never
// persisted; they are re-fetched on every call.
type Run struct {
	ID            int64
	HTMLURL       string
	Status        string
	Conclusion    string
	Title         string
	CommitMessage string
	StartedAt     time.Time
	UpdatedAt     time.Time
}

// Job is a single job within a workflow run.
type Job struct {
	ID          int64
	Name        string
	Status      string
	Conclusion  string
	StartedAt   time.Time
	CompletedAt time.Time
}

// API is the set of workflow primitives the orchestrators need. Implemented
// by Client; test doubles implement it in-process.
type API interface {
	// Dispatch fires a workflow_dispatch event. GitHub's acceptance carries
	// no run identifier; discovery happens separately.
	Dispatch(ctx context.Context, t target.Target, inputs map[string]interface{}) error
	// ListRecentRuns lists workflow_dispatch runs created at or after since,
	// newest first per GitHub's own ordering.
	ListRecentRuns(ctx context.Context, t target.Target, since time.Time) ([]Run, error)
	GetRun(ctx context.Context, t target.Target, runID int64) (Run, error)
	ListJobs(ctx context.Context, t target.Target, runID int64) ([]Job, error)
	// CancelRun requests cancellation. Success means GitHub accepted the
	// request (202); the run transitions to cancelled later.
	CancelRun(ctx context.Context, t target.Target, runID int64) error
	// RunLogsURL returns the short-lived redirect target for the run's log
	// archive without following it.
	RunLogsURL(ctx context.Context, t target.Target, runID int64) (string, error)
	JobLogsURL(ctx context.Context, t target.Target, jobID int64) (string, error)
}

var runURLPattern = regexp.MustCompile(`/actions/runs/(\d+)`)

// ParseRunURL extracts the numeric run id from a GitHub run URL such as
// https://github.com/acme/widgets/actions/runs/123456789.
func ParseRunURL(rawURL string) (int64, error) {
	m := runURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, errors.Newf(errors.CodeInput, "no run id found in URL %q", rawURL)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInput, "invalid run id in URL")
	}
	return id, nil
}
