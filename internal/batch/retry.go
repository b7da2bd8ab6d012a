// Package batch schedules downloads over a bounded worker pool, retries
// failed jobs with linear backoff and reports the aggregate result.
package batch

import (
	"context"
	"fmt"
	"time"

	"ytbatch/internal/logging"
	"ytbatch/internal/model"
	"ytbatch/internal/ytdlp"
)

// DefaultBaseDelay is multiplied by the attempt number to get the wait
// before the next attempt.
const DefaultBaseDelay = 1500 * time.Millisecond

// Downloader performs a single invocation of the external tool.
type Downloader interface {
	Download(ctx context.Context, desc ytdlp.JobDescriptor) error
}

// StateFunc receives the job state changes made while attempting a job.
type StateFunc func(state string)

// Retrier runs one job with bounded retry.
type Retrier struct {
	Downloader Downloader
	Log        *logging.Logger
	BaseDelay  time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrier(d Downloader, log *logging.Logger) *Retrier {
	return &Retrier{Downloader: d, Log: log, BaseDelay: DefaultBaseDelay}
}

// Attempt runs the descriptor up to maxRetries+1 times and returns the final
// outcome. It blocks until the job succeeds or gives up.
func (r *Retrier) Attempt(ctx context.Context, desc ytdlp.JobDescriptor, maxRetries int) model.JobOutcome {
	return r.AttemptTracked(ctx, desc, maxRetries, nil)
}

// AttemptTracked is Attempt with state notifications for backoff waits and
// the attempts that follow them.
func (r *Retrier) AttemptTracked(ctx context.Context, desc ytdlp.JobDescriptor, maxRetries int, track StateFunc) model.JobOutcome {
	log := r.Log
	if log == nil {
		log = logging.Nop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if track == nil {
		track = func(string) {}
	}
	total := maxRetries + 1
	out := model.JobOutcome{Locator: desc.Locator}

	// A started yt-dlp process is allowed to finish after an interrupt.
	runCtx := context.WithoutCancel(ctx)

	for attempt := 1; ; attempt++ {
		out.Attempts = attempt
		err := r.Downloader.Download(runCtx, desc)
		if err == nil {
			log.Info().Str("url", desc.Locator).Int("attempt", attempt).Msg("download complete")
			out.Success = true
			out.Err = nil
			return out
		}
		out.Err = err

		ev := log.Error().Str("url", desc.Locator).Int("attempt", attempt).Int("of", total)
		if log.Verbose() {
			ev = ev.Err(err)
		}
		ev.Msg("download failed")

		if attempt > maxRetries {
			return out
		}

		delay := r.delay(attempt)
		track(model.StateBackoff)
		log.Info().Str("url", desc.Locator).Dur("delay", delay).Msgf("retrying in %s", delay)
		if err := r.sleep(ctx, delay); err != nil {
			out.Err = fmt.Errorf("retry abandoned after attempt %d: %w", attempt, err)
			log.Warn().Str("url", desc.Locator).Msg("run interrupted, no further attempts")
			return out
		}
		track(model.StateRunning)
	}
}

func (r *Retrier) delay(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base * time.Duration(attempt)
}

func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
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
