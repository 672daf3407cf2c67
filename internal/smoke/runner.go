package smoke

import (
	"context"
	"errors"
	"time"

	"github.com/loykin/apismoke/internal/common"
)

// cleanupTimeout bounds the cleanup phase, which runs even after cancellation.
const cleanupTimeout = 30 * time.Second

// Runner executes suites strictly in order with no retries.
type Runner struct {
	reporter *Reporter
	now      func() time.Time
}

func NewRunner(rep *Reporter) *Runner {
	if rep == nil {
		rep = NewReporter(nil, false)
	}
	return &Runner{reporter: rep, now: time.Now}
}

// Run executes s. The first failing step aborts the remaining steps, which are
// recorded as skipped. Cleanup failures are reported as warnings only.
func (r *Runner) Run(ctx context.Context, s *Suite) Result {
	logger := common.GetLogger().WithSuite(s.Name)
	res := Result{Suite: s.Name, Passed: true, StartedAt: r.now()}

	title := s.Name
	if s.Description != "" {
		title = s.Description
	}
	r.reporter.Banner(title)
	if s.Mutates {
		logger.Warn("suite creates records on the backend; enable cleanup to delete them")
	}

	n := 0
	for i, step := range s.Steps {
		n++
		if !res.Passed {
			res.Steps = append(res.Steps, StepResult{Name: step.Name, Outcome: OutcomeSkipped})
			continue
		}
		r.reporter.Step(n, step.Name)
		sr := r.runStep(ctx, step, false, logger)
		res.Steps = append(res.Steps, sr)
		if sr.Outcome == OutcomeFailed {
			res.Passed = false
			logger.Error("step failed", "step", step.Name, "index", i+1, "kind", sr.Kind.String(), "error", sr.Message)
		}
	}

	if len(s.Cleanup) > 0 {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		for _, step := range s.Cleanup {
			n++
			r.reporter.Step(n, step.Name)
			res.Steps = append(res.Steps, r.runStep(cctx, step, true, logger))
		}
		cancel()
	}

	res.Duration = r.now().Sub(res.StartedAt)
	r.reporter.Summary(res)
	return res
}

func (r *Runner) runStep(ctx context.Context, step Step, cleanup bool, logger *common.Logger) StepResult {
	sr := StepResult{Name: step.Name, Cleanup: cleanup}
	start := r.now()

	var err error
	if cerr := ctx.Err(); cerr != nil {
		err = NewStepError(KindConnectivity, step.Name, cerr)
	} else {
		err = r.safeRun(ctx, step)
	}
	sr.Duration = r.now().Sub(start)

	var warn *Warning
	switch {
	case err == nil:
		sr.Outcome = OutcomePassed
		logger.Debug("step passed", "step", step.Name, "duration", sr.Duration)
	case errors.As(err, &warn):
		sr.Outcome = OutcomeWarned
		sr.Message = warn.Msg
		r.reporter.Warn("%s", warn.Msg)
		logger.Warn("step warning", "step", step.Name, "warning", warn.Msg)
	case cleanup:
		se := Classify(step.Name, err)
		sr.Outcome = OutcomeWarned
		sr.Kind = se.Kind
		sr.Err = se
		sr.Message = se.Err.Error()
		r.reporter.Warn("cleanup %s failed [%s]: %v", step.Name, se.Kind, se.Err)
		logger.Warn("cleanup failed", "step", step.Name, "kind", se.Kind.String(), "error", sr.Message)
	default:
		se := Classify(step.Name, err)
		sr.Outcome = OutcomeFailed
		sr.Kind = se.Kind
		sr.Err = se
		sr.Message = se.Err.Error()
		r.reporter.Fail("%s failed [%s]: %v", step.Name, se.Kind, se.Err)
	}
	return sr
}

// safeRun converts a panicking step into a failure.
func (r *Runner) safeRun(ctx context.Context, step Step) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = Errorf(KindUnknown, step.Name, "panic: %v", p)
		}
	}()
	if step.Run == nil {
		return nil
	}
	return step.Run(ctx)
}
