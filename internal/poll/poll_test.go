package poll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper collects requested wait durations without waiting.
func recordingSleeper(waits *[]time.Duration) Sleeper {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestLinearScheduleRamp(t *testing.T) {
	var waits []time.Duration

	attempts, err := Until(context.Background(), Linear(5, 5*time.Second), recordingSleeper(&waits),
		func(int) (bool, error) { return false, nil })

	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 5, attempts)
	assert.Equal(t, []time.Duration{
		5 * time.Second,
		10 * time.Second,
		15 * time.Second,
		20 * time.Second,
		25 * time.Second,
	}, waits)

	var total time.Duration
	for _, w := range waits {
		total += w
	}
	assert.Equal(t, 75*time.Second, total)
}

func TestUntilStopsAtFirstSuccess(t *testing.T) {
	var waits []time.Duration

	attempts, err := Until(context.Background(), Linear(5, 5*time.Second), recordingSleeper(&waits),
		func(attempt int) (bool, error) { return attempt == 3, nil })

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, waits, 3, "no further sleeps after success")
}

func TestUntilPropagatesError(t *testing.T) {
	boom := fmt.Errorf("listing failed")

	attempts, err := Until(context.Background(), Linear(5, time.Second), recordingSleeper(new([]time.Duration)),
		func(attempt int) (bool, error) {
			if attempt == 2 {
				return false, boom
			}
			return false, nil
		})

	assert.Equal(t, 2, attempts)
	assert.ErrorIs(t, err, boom)
}

func TestUntilHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Until(ctx, Linear(5, time.Millisecond), nil,
		func(int) (bool, error) { return false, nil })

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLinearBackOffReset(t *testing.T) {
	s := Linear(3, time.Second)

	assert.Equal(t, time.Second, s.BackOff.NextBackOff())
	assert.Equal(t, 2*time.Second, s.BackOff.NextBackOff())

	s.BackOff.Reset()
	assert.Equal(t, time.Second, s.BackOff.NextBackOff())
}
