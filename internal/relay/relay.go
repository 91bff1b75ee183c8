// Package relay contains the dispatch and status/cancellation orchestrators.
// The relay keeps no state of its own: the external service is the state of
// record and every call re-projects it.
package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/runrelay/runrelay/internal/discovery"
	"github.com/runrelay/runrelay/internal/gh"
	"github.com/runrelay/runrelay/internal/metrics"
	"github.com/runrelay/runrelay/internal/poll"
	"github.com/runrelay/runrelay/internal/target"
)

// StatusPending is reported when no run has been correlated to the token
// yet. The remaining statuses come straight from GitHub (queued,
// in_progress, completed).
const StatusPending = "pending"

// Settings bound the relay's polling behavior. Zero values fall back to the
// defaults below. The dispatch and status lookback windows are deliberately
// independent settings.
type Settings struct {
	DispatchMaxAttempts int
	DispatchBackoffStep time.Duration
	DispatchLookback    time.Duration
	StatusLookback      time.Duration
}

const (
	defaultMaxAttempts = 5
	defaultBackoffStep = 5 * time.Second
	defaultLookback    = 10 * time.Minute
)

func (s Settings) withDefaults() Settings {
	if s.DispatchMaxAttempts <= 0 {
		s.DispatchMaxAttempts = defaultMaxAttempts
	}
	if s.DispatchBackoffStep <= 0 {
		s.DispatchBackoffStep = defaultBackoffStep
	}
	if s.DispatchLookback <= 0 {
		s.DispatchLookback = defaultLookback
	}
	if s.StatusLookback <= 0 {
		s.StatusLookback = defaultLookback
	}
	return s
}

// Orchestrator drives dispatch, discovery, status and cancellation against
// the workflow API. Safe for concurrent use; it holds no mutable state.
type Orchestrator struct {
	api      gh.API
	engine   *discovery.Engine
	log      *zap.Logger
	settings Settings

	now   func() time.Time
	sleep poll.Sleeper
}

// Option adjusts an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithClock replaces the wall clock, anchoring lookback windows in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSleeper replaces the poll sleeper so tests run without real waiting.
func WithSleeper(s poll.Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

func New(api gh.API, engine *discovery.Engine, log *zap.Logger, settings Settings, opts ...Option) *Orchestrator {
	if engine == nil {
		engine = discovery.NewEngine(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		api:      api,
		engine:   engine,
		log:      log,
		settings: settings.withDefaults(),
		now:      time.Now,
		sleep:    poll.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// discoverOnce performs a single discovery attempt: one listing bounded by
// the given lookback window, matched against the token. A nil run with a nil
// error means "nothing matched", which is an expected state, not a failure.
func (o *Orchestrator) discoverOnce(ctx context.Context, t target.Target, token string, lookback time.Duration) (*gh.Run, error) {
	since := o.now().Add(-lookback)
	metrics.DiscoveryAttempts.Inc()

	runs, err := o.api.ListRecentRuns(ctx, t, since)
	if err != nil {
		return nil, err
	}
	run := o.engine.Match(runs, token)
	if run == nil {
		o.log.Debug("no run matched token",
			zap.String("token", token),
			zap.String("repo", t.Slug()),
			zap.Int("candidates", len(runs)),
		)
	}
	return run, nil
}
