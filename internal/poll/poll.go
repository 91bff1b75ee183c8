// Package poll provides a bounded poll-until loop with an explicit backoff
// schedule. The schedule is a plain configuration object so it can be tested
// without real waiting by injecting a fake sleeper.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is returned when every attempt completed without success.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Schedule bounds a polling loop: at most MaxAttempts attempts, each
// preceded by a wait of BackOff.NextBackOff().
type Schedule struct {
	MaxAttempts int
	BackOff     backoff.BackOff
}

// linearBackOff ramps linearly: step, 2*step, 3*step, ... A small
// predictable ramp converges faster than exponential backoff when the
// expected delay is a fixed propagation lag rather than contention.
type linearBackOff struct {
	step time.Duration
	next time.Duration
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.next += b.step
	return b.next
}

func (b *linearBackOff) Reset() {
	b.next = 0
}

// Linear returns a schedule of maxAttempts attempts waiting step*i before
// attempt i. With 5 attempts and a 5s step the worst case is 75s in total.
func Linear(maxAttempts int, step time.Duration) Schedule {
	return Schedule{
		MaxAttempts: maxAttempts,
		BackOff:     &linearBackOff{step: step},
	}
}

// Sleeper waits for d or until ctx is done. Tests inject one that records
// requested durations instead of sleeping.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Until runs fn up to s.MaxAttempts times, sleeping per the schedule before
// each attempt. Attempts are strictly sequential. fn reports done=true to
// stop the loop; a non-nil error from fn stops it immediately. Returns the
// number of attempts used; ErrExhausted when no attempt reported done.
func Until(ctx context.Context, s Schedule, sleep Sleeper, fn func(attempt int) (done bool, err error)) (int, error) {
	if sleep == nil {
		sleep = Sleep
	}
	s.BackOff.Reset()

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		if err := sleep(ctx, s.BackOff.NextBackOff()); err != nil {
			return attempt, err
		}
		done, err := fn(attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}
	}
	return s.MaxAttempts, ErrExhausted
}
