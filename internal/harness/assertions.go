package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Cycles   []CycleTrace // Full run for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nCycles:\n")
	for _, c := range e.Cycles {
		fmt.Fprintf(&buf, "  [%d] online=%t processed=%v failed=%v queue=%d\n",
			c.Cycle, c.Online, c.Processed, c.Failed, len(c.Queue))
	}
	return buf.String()
}

// assertRemoved checks the action was queued before the cycle and gone after it.
func assertRemoved(r *Result, a Assertion) error {
	c, _ := r.cycle(a.Cycle)
	if slices.Contains(c.Processed, a.Action) || slices.Contains(c.Failed, a.Action) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRemoved,
		Expected: fmt.Sprintf("%s removed in cycle %d", a.Action, a.Cycle),
		Actual:   fmt.Sprintf("%s %s", a.Action, describe(r, a.Action)),
		Cycles:   r.Cycles,
	}
}

// assertPermanentFailure checks the action was dropped after max retries in the cycle.
func assertPermanentFailure(r *Result, a Assertion) error {
	c, _ := r.cycle(a.Cycle)
	if slices.Contains(c.Failed, a.Action) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPermanentFailure,
		Expected: fmt.Sprintf("%s permanently failed in cycle %d", a.Action, a.Cycle),
		Actual:   fmt.Sprintf("%s %s", a.Action, describe(r, a.Action)),
		Cycles:   r.Cycles,
	}
}

// assertQueueLength checks the queue length at the end of the cycle.
func assertQueueLength(r *Result, a Assertion) error {
	c, _ := r.cycle(a.Cycle)
	if len(c.Queue) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertQueueLength,
		Expected: fmt.Sprintf("%d queued after cycle %d", a.Count, a.Cycle),
		Actual:   fmt.Sprintf("%d queued", len(c.Queue)),
		Cycles:   r.Cycles,
	}
}

// assertCallCount checks the total number of calls to a backend method.
func assertCallCount(r *Result, a Assertion) error {
	if got := r.Calls[a.Method]; got != a.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%s called %d times", a.Method, a.Count),
			Actual:   fmt.Sprintf("called %d times", got),
			Cycles:   r.Cycles,
		}
	}
	return nil
}

// describe reports where an action left the queue, if it did.
func describe(r *Result, id string) string {
	for _, c := range r.Cycles {
		if slices.Contains(c.Processed, id) {
			return fmt.Sprintf("processed in cycle %d", c.Cycle)
		}
		if slices.Contains(c.Failed, id) {
			return fmt.Sprintf("failed in cycle %d", c.Cycle)
		}
	}
	return "never removed"
}

// EvaluateAssertions runs each assertion against the result and returns
// the failure messages; an empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRemoved:
			err = assertRemoved(result, a)
		case AssertPermanentFailure:
			err = assertPermanentFailure(result, a)
		case AssertQueueLength:
			err = assertQueueLength(result, a)
		case AssertCallCount:
			err = assertCallCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
