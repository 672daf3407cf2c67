package smoke

import "time"

type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeWarned  Outcome = "warned"
	OutcomeSkipped Outcome = "skipped"
)

// StepResult records one executed (or skipped) step.
type StepResult struct {
	Name     string
	Outcome  Outcome
	Kind     ErrorKind
	Message  string
	Duration time.Duration
	// Cleanup marks steps that ran after the main sequence.
	Cleanup bool
	Err     error
}

// Result is the outcome of one suite run.
type Result struct {
	Suite     string
	Passed    bool
	Steps     []StepResult
	StartedAt time.Time
	Duration  time.Duration
}

// ExitCode maps the result to the process exit status.
func (r Result) ExitCode() int {
	if r.Passed {
		return 0
	}
	return 1
}

// FailedStep returns the step that aborted the suite, if any.
func (r Result) FailedStep() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Outcome == OutcomeFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

func (r Result) Warnings() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeWarned {
			n++
		}
	}
	return n
}

// ExitCode aggregates several results: 0 only when every suite passed.
func ExitCode(results ...Result) int {
	if len(results) == 0 {
		return 1
	}
	for _, r := range results {
		if !r.Passed {
			return 1
		}
	}
	return 0
}
