package model

import "fmt"

const (
	StateQueued    = "queued"
	StateRunning   = "running"
	StateBackoff   = "backoff"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
	StateSkipped   = "skipped"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StateQueued: true,
	},
	StateQueued: {
		StateRunning: true,
		StateSkipped: true,
	},
	StateRunning: {
		StateSucceeded: true,
		StateBackoff:   true,
		StateFailed:    true,
	},
	StateBackoff: {
		StateRunning: true,
		StateFailed:  true, // run interrupted during the wait
	},
	StateSucceeded: {},
	StateFailed:    {},
	StateSkipped:   {},
}

func IsKnownState(state string) bool {
	_, ok := allowedTransitions[state]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func IsTerminal(state string) bool {
	switch state {
	case StateSucceeded, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}

func TransitionJobState(job *JobRecord, to string) error {
	from := job.State
	if !IsKnownState(to) {
		return fmt.Errorf("unknown job state %q (index=%d locator=%s)", to, job.Index, job.Locator)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid job state transition: %q -> %q (index=%d locator=%s)", from, to, job.Index, job.Locator)
	}
	job.State = to
	return nil
}
