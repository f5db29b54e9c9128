package ocr

import (
	"context"
	"time"

	"letterflow/schema"
)

// JobState is the observed state of an asynchronous extraction job.
type JobState string

const (
	JobSubmitted      JobState = "SUBMITTED"
	JobInProgress     JobState = "IN_PROGRESS"
	JobSucceeded      JobState = "SUCCEEDED"
	JobFailed         JobState = "FAILED"
	JobPartialSuccess JobState = "PARTIAL_SUCCESS"
)

// Terminal reports whether the job will not change state anymore.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobPartialSuccess
}

// PollFunc fetches the current state of a job.
type PollFunc func(ctx context.Context) (JobState, error)

// Poller drives a job-style backend to completion: poll at a fixed delay, at
// most MaxRetries times. The bound keeps a stuck job from blocking a worker
// slot indefinitely.
type Poller struct {
	MaxRetries int
	Delay      time.Duration

	// Sleep is replaced in tests with a fake clock.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Wait polls until the job reaches a terminal state or the retry budget is
// exhausted. A FAILED job is an extraction error; an exhausted budget is a
// timeout error. PARTIAL_SUCCESS is returned to the caller, which decides how
// much of the result is usable.
func (p *Poller) Wait(ctx context.Context, poll PollFunc) (JobState, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < p.MaxRetries; attempt++ {
		state, err := poll(ctx)
		if err != nil {
			return state, schema.NewError(schema.KindExtraction, err)
		}

		switch state {
		case JobSucceeded, JobPartialSuccess:
			return state, nil
		case JobFailed:
			return state, schema.Errorf(schema.KindExtraction, "extraction job failed")
		}

		if attempt < p.MaxRetries-1 {
			if err := sleep(ctx, p.Delay); err != nil {
				return state, schema.NewError(schema.KindExtraction, err)
			}
		}
	}

	return JobInProgress, schema.Errorf(schema.KindTimeout,
		"extraction job did not finish after %d polls", p.MaxRetries)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
