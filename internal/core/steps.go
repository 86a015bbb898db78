package core

// ProgressFunc receives a stage boundary: the step name, its 1-based index,
// the total step count and the stage error, nil when the stage is fine.
type ProgressFunc func(step string, index, total int, err error)

// Steps numbers pipeline stages and forwards each boundary to a ProgressFunc.
// A nil *Steps is valid and reports nothing.
type Steps struct {
	total   int
	current int
	report  ProgressFunc
}

// NewSteps creates a step counter for total stages.
func NewSteps(total int, report ProgressFunc) *Steps {
	return &Steps{total: total, report: report}
}

// Begin advances to the next step and reports its start.
func (s *Steps) Begin(name string) {
	if s == nil {
		return
	}
	if s.current < s.total {
		s.current++
	}
	if s.report != nil {
		s.report(name, s.current, s.total, nil)
	}
}

// Skip advances past a step that does not apply without reporting it.
func (s *Steps) Skip() {
	if s != nil && s.current < s.total {
		s.current++
	}
}

// End reports the outcome of the current step.
func (s *Steps) End(name string, err error) {
	if s == nil || s.report == nil {
		return
	}
	s.report(name, s.current, s.total, err)
}

// Current returns the index of the current step.
func (s *Steps) Current() int {
	if s == nil {
		return 0
	}
	return s.current
}

// Total returns the number of steps.
func (s *Steps) Total() int {
	if s == nil {
		return 0
	}
	return s.total
}
