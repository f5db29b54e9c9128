package ocr

import (
	"context"
	"testing"
	"time"

	"letterflow/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSleep(slept *int) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept++
		return nil
	}
}

func TestPollerTimesOutAfterExactBudget(t *testing.T) {
	polls, slept := 0, 0
	p := &Poller{MaxRetries: 3, Delay: 5 * time.Second, Sleep: fakeSleep(&slept)}

	state, err := p.Wait(context.Background(), func(ctx context.Context) (JobState, error) {
		polls++
		return JobInProgress, nil
	})

	require.Error(t, err)
	assert.Equal(t, schema.KindTimeout, schema.KindOf(err))
	assert.Equal(t, JobInProgress, state)
	assert.Equal(t, 3, polls)
	assert.Equal(t, 2, slept) // no sleep after the final poll
}

func TestPollerReturnsOnSuccess(t *testing.T) {
	polls := 0
	p := &Poller{MaxRetries: 10, Delay: time.Second, Sleep: fakeSleep(new(int))}

	state, err := p.Wait(context.Background(), func(ctx context.Context) (JobState, error) {
		polls++
		if polls < 3 {
			return JobInProgress, nil
		}
		return JobSucceeded, nil
	})

	require.NoError(t, err)
	assert.Equal(t, JobSucceeded, state)
	assert.Equal(t, 3, polls)
}

func TestPollerSurfacesPartialSuccess(t *testing.T) {
	p := &Poller{MaxRetries: 2, Delay: time.Second, Sleep: fakeSleep(new(int))}

	state, err := p.Wait(context.Background(), func(ctx context.Context) (JobState, error) {
		return JobPartialSuccess, nil
	})

	require.NoError(t, err)
	assert.Equal(t, JobPartialSuccess, state)
}

func TestPollerFailedJobIsExtractionError(t *testing.T) {
	p := &Poller{MaxRetries: 5, Delay: time.Second, Sleep: fakeSleep(new(int))}

	_, err := p.Wait(context.Background(), func(ctx context.Context) (JobState, error) {
		return JobFailed, nil
	})

	require.Error(t, err)
	assert.Equal(t, schema.KindExtraction, schema.KindOf(err))
}

func TestPollerStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{MaxRetries: 100, Delay: time.Hour}

	polls := 0
	go func() { cancel() }()

	_, err := p.Wait(ctx, func(ctx context.Context) (JobState, error) {
		polls++
		return JobInProgress, nil
	})

	require.Error(t, err)
	assert.LessOrEqual(t, polls, 2)
}
