package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ytbatch/internal/logging"
	"ytbatch/internal/model"
)

// ErrInterrupted is the failure recorded for locators that never started
// because the run was cancelled.
var ErrInterrupted = errors.New("not started: run interrupted")

// AttemptFunc runs one locator end-to-end, retries included.
type AttemptFunc func(ctx context.Context, locator string, maxRetries int, track StateFunc) model.JobOutcome

// Scheduler drains a FIFO queue of locators with a fixed number of workers.
// A worker takes the next locator as soon as its current job finishes.
type Scheduler struct {
	Concurrency int
	Retries     int
	Attempt     AttemptFunc
	Log         *logging.Logger

	// OnDone, when set, is called once per locator after its outcome is known.
	OnDone func(model.JobOutcome)

	mu     sync.Mutex
	queue  []int
	active int
	jobs   []model.JobRecord
	failed []string
	ok     int
}

// Run blocks until every locator has an outcome. After ctx is cancelled no
// new job is started; running jobs finish and the rest are recorded as failed.
func (s *Scheduler) Run(ctx context.Context, locators []string) (model.RunResult, error) {
	if s.Concurrency < 1 {
		return model.RunResult{}, fmt.Errorf("concurrency must be at least 1 (got %d)", s.Concurrency)
	}
	if s.Attempt == nil {
		return model.RunResult{}, fmt.Errorf("scheduler has no attempt function")
	}
	log := s.Log
	if log == nil {
		log = logging.Nop()
	}

	result := model.RunResult{StartedAt: time.Now().UTC(), Total: len(locators)}

	s.mu.Lock()
	s.queue = make([]int, 0, len(locators))
	s.jobs = make([]model.JobRecord, len(locators))
	s.failed = make([]string, 0)
	s.ok = 0
	s.active = 0
	for i, loc := range locators {
		s.jobs[i] = model.JobRecord{Index: i, Locator: loc}
		s.transition(log, i, model.StateQueued)
		s.queue = append(s.queue, i)
	}
	s.mu.Unlock()

	workers := s.Concurrency
	if workers > len(locators) {
		workers = len(locators)
	}
	log.Debug().Int("jobs", len(locators)).Int("workers", workers).Msg("scheduling")

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx, log)
		}()
	}
	wg.Wait()

	s.mu.Lock()
	for _, idx := range s.queue {
		s.transition(log, idx, model.StateSkipped)
		s.finish(idx, model.JobOutcome{Locator: s.jobs[idx].Locator, Err: ErrInterrupted})
	}
	if n := len(s.queue); n > 0 {
		log.Warn().Int("jobs", n).Msg("run interrupted before all jobs started")
	}
	s.queue = nil
	for i := range s.jobs {
		if !model.IsTerminal(s.jobs[i].State) {
			log.Error().Str("url", s.jobs[i].Locator).Str("state", s.jobs[i].State).Msg("job left without a final state")
			s.jobs[i].State = model.StateFailed
		}
	}

	result.Succeeded = s.ok
	result.Failed = append([]string(nil), s.failed...)
	result.Jobs = append([]model.JobRecord(nil), s.jobs...)
	s.mu.Unlock()

	result.FinishedAt = time.Now().UTC()
	return result, nil
}

func (s *Scheduler) work(ctx context.Context, log *logging.Logger) {
	for {
		idx, locator, ok := s.next(ctx, log)
		if !ok {
			return
		}
		track := func(state string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.transition(log, idx, state)
		}

		out := s.attempt(ctx, log, locator, track)
		out.Locator = locator

		s.mu.Lock()
		if out.Success {
			s.transition(log, idx, model.StateSucceeded)
		} else {
			s.transition(log, idx, model.StateFailed)
		}
		s.active--
		s.finish(idx, out)
		s.mu.Unlock()
	}
}

// attempt runs one job. A panic fails that job instead of the whole run.
func (s *Scheduler) attempt(ctx context.Context, log *logging.Logger, locator string, track StateFunc) (out model.JobOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("url", locator).Interface("panic", r).Msg("job panicked")
			out = model.JobOutcome{Locator: locator, Attempts: out.Attempts, Err: fmt.Errorf("job panicked: %v", r)}
		}
	}()
	return s.Attempt(ctx, locator, s.Retries, track)
}

// next pops the head of the queue. It reports false once the queue is empty
// or the run has been cancelled.
func (s *Scheduler) next(ctx context.Context, log *logging.Logger) (int, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || len(s.queue) == 0 {
		return 0, "", false
	}
	idx := s.queue[0]
	s.queue = s.queue[1:]
	s.active++
	s.transition(log, idx, model.StateRunning)
	return idx, s.jobs[idx].Locator, true
}

// finish records an outcome. Callers hold s.mu.
func (s *Scheduler) finish(idx int, out model.JobOutcome) {
	job := &s.jobs[idx]
	job.Attempts = out.Attempts
	job.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if out.Success {
		s.ok++
	} else {
		s.failed = append(s.failed, job.Locator)
		if out.Err != nil {
			job.LastError = out.Err.Error()
		}
	}
	if s.OnDone != nil {
		s.OnDone(out)
	}
}

// transition updates a job state. Callers hold s.mu.
func (s *Scheduler) transition(log *logging.Logger, idx int, to string) {
	if err := model.TransitionJobState(&s.jobs[idx], to); err != nil {
		log.Debugf("%v", err)
	}
}
