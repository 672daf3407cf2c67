package smoke

import "context"

// StepFunc performs one step. Returning a *Warning marks the step as warned
// without aborting the suite.
type StepFunc func(ctx context.Context) error

type Step struct {
	Name string
	Run  StepFunc
}

// Suite is an ordered list of steps plus optional cleanup steps that run
// after the main sequence whatever its outcome.
type Suite struct {
	Name        string
	Description string
	Steps       []Step
	Cleanup     []Step
	// Mutates marks suites that create records on the backend.
	Mutates bool
}

// AddStep appends a step to the main sequence.
func (s *Suite) AddStep(name string, fn StepFunc) {
	s.Steps = append(s.Steps, Step{Name: name, Run: fn})
}

// AddCleanup appends a cleanup step.
func (s *Suite) AddCleanup(name string, fn StepFunc) {
	s.Cleanup = append(s.Cleanup, Step{Name: name, Run: fn})
}
