package relay

import (
	"context"
	"sync"
	"time"

	relayerr "github.com/runrelay/runrelay/internal/errors"
	"github.com/runrelay/runrelay/internal/gh"
	"github.com/runrelay/runrelay/internal/poll"
	"github.com/runrelay/runrelay/internal/target"
)

func errNotFound() error {
	return relayerr.New(relayerr.CodeNotFound, "not found")
}

// fakeAPI scripts the workflow API in-process.
type fakeAPI struct {
	mu sync.Mutex

	dispatchErr error
	dispatched  []map[string]interface{}

	listResults [][]gh.Run // result per listing call; the last entry repeats
	listErr     error
	listCalls   int
	lastSince   time.Time
	lastTarget  target.Target

	runs   map[int64]gh.Run
	getErr error

	jobs    []gh.Job
	jobsErr error

	cancelErr error
	cancelled []int64

	runLogsURL string
	runLogsErr error
	jobLogsURL string
	jobLogsErr error
}

var _ gh.API = (*fakeAPI)(nil)

func (f *fakeAPI) Dispatch(_ context.Context, t target.Target, inputs map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTarget = t
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatched = append(f.dispatched, inputs)
	return nil
}

func (f *fakeAPI) ListRecentRuns(_ context.Context, t target.Target, since time.Time) ([]gh.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastSince = since
	f.lastTarget = t
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.listResults) == 0 {
		return nil, nil
	}
	idx := f.listCalls - 1
	if idx >= len(f.listResults) {
		idx = len(f.listResults) - 1
	}
	return f.listResults[idx], nil
}

func (f *fakeAPI) GetRun(_ context.Context, _ target.Target, runID int64) (gh.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return gh.Run{}, f.getErr
	}
	run, ok := f.runs[runID]
	if !ok {
		return gh.Run{}, errNotFound()
	}
	return run, nil
}

func (f *fakeAPI) ListJobs(_ context.Context, _ target.Target, _ int64) ([]gh.Job, error) {
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	return f.jobs, nil
}

func (f *fakeAPI) CancelRun(_ context.Context, _ target.Target, runID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, runID)
	return nil
}

func (f *fakeAPI) RunLogsURL(_ context.Context, _ target.Target, _ int64) (string, error) {
	return f.runLogsURL, f.runLogsErr
}

func (f *fakeAPI) JobLogsURL(_ context.Context, _ target.Target, _ int64) (string, error) {
	return f.jobLogsURL, f.jobLogsErr
}

// noSleep runs the poll loop without waiting.
func noSleep(context.Context, time.Duration) error { return nil }

func newTestOrchestrator(api gh.API, settings Settings) *Orchestrator {
	return New(api, nil, nil, settings, WithSleeper(noSleep))
}

var _ poll.Sleeper = noSleep

func testTarget() target.Target {
	return target.Resolve(target.Defaults{Owner: "acme", Repo: "widgets"}, target.Overrides{}, false)
}
