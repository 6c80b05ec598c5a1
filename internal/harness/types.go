package harness

// CycleTrace records what one sync cycle did.
//
// Empty lists are omitted so golden traces stay short.
type CycleTrace struct {
	Cycle     int64          `json:"cycle"`
	Online    bool           `json:"online"`
	Success   bool           `json:"success"`
	Reason    string         `json:"reason,omitempty"`
	Calls     []string       `json:"calls,omitempty"`
	Processed []string       `json:"processed,omitempty"`
	Retried   []string       `json:"retried,omitempty"`
	Failed    []string       `json:"failed,omitempty"`
	Refreshed []string       `json:"refreshed,omitempty"`
	Queue     []QueuedAction `json:"queue,omitempty"`
}

// QueuedAction is an action still queued at the end of a cycle.
type QueuedAction struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	RetryCount int    `json:"retry_count"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is false if any assertion failed.
	Pass bool

	// Cycles holds one trace per cycle, in order.
	Cycles []CycleTrace

	// Calls counts backend calls per method over the whole run.
	Calls map[string]int

	// Errors holds assertion failure messages.
	Errors []string
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cycles: []CycleTrace{},
		Calls:  make(map[string]int),
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

// cycle returns the trace of the 1-based cycle n.
func (r *Result) cycle(n int) (CycleTrace, bool) {
	if n < 1 || n > len(r.Cycles) {
		return CycleTrace{}, false
	}
	return r.Cycles[n-1], true
}
