package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/testutil"
)

// Scenario describes a sequence of sync cycles over a pre-filled queue.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxRetries overrides the coordinator's retry limit when non-zero.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// Actions are enqueued in order before the first cycle.
	Actions []ActionStep `yaml:"actions"`

	// Outcomes scripts backend answers per method, consumed in call order.
	Outcomes map[string][]string `yaml:"outcomes,omitempty"`

	// Defaults sets the answer a method gives once its outcomes run out.
	Defaults map[string]string `yaml:"defaults,omitempty"`

	// Cycles lists connectivity per cycle: "online" or "offline".
	Cycles []string `yaml:"cycles"`

	// Assertions validate the recorded cycles.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ActionStep is one action to enqueue.
type ActionStep struct {
	// Kind is the action kind, e.g. PLACE_ORDER.
	Kind string `yaml:"kind"`

	// Payload is the action payload; it is stored as JSON.
	Payload map[string]any `yaml:"payload"`
}

// Assertion validates the run.
type Assertion struct {
	// Type is one of removed, permanent_failure, queue_length, call_count.
	Type string `yaml:"type"`

	// Action is the action ID (removed, permanent_failure).
	Action string `yaml:"action,omitempty"`

	// Method is the backend method name (call_count).
	Method string `yaml:"method,omitempty"`

	// Cycle is the 1-based cycle number (removed, permanent_failure, queue_length).
	Cycle int `yaml:"cycle,omitempty"`

	// Count is the expected number (queue_length, call_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRemoved          = "removed"
	AssertPermanentFailure = "permanent_failure"
	AssertQueueLength      = "queue_length"
	AssertCallCount        = "call_count"
)

// Connectivity values for Scenario.Cycles.
const (
	CycleOnline  = "online"
	CycleOffline = "offline"
)

// Backend outcome values for Scenario.Outcomes and Scenario.Defaults.
const (
	OutcomeOK        = "ok"
	OutcomeFail      = "fail"
	OutcomeTransport = "transport"
)

var knownMethods = map[string]bool{
	testutil.MethodPlaceOrder:       true,
	testutil.MethodCancelOrder:      true,
	testutil.MethodAddMoney:         true,
	testutil.MethodUpdateProfile:    true,
	testutil.MethodCreateSocialPost: true,
	testutil.MethodGetPortfolio:     true,
	testutil.MethodGetMarketData:    true,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if len(s.Cycles) == 0 {
		return fmt.Errorf("cycles list is required and must be non-empty")
	}

	for i, step := range s.Actions {
		if _, err := ir.ParseActionKind(step.Kind); err != nil {
			return fmt.Errorf("actions[%d]: %w", i, err)
		}
		if step.Payload == nil {
			return fmt.Errorf("actions[%d]: payload is required", i)
		}
	}

	for method, outcomes := range s.Outcomes {
		if !knownMethods[method] {
			return fmt.Errorf("outcomes: unknown method %q", method)
		}
		for i, o := range outcomes {
			if err := validateOutcome(o); err != nil {
				return fmt.Errorf("outcomes.%s[%d]: %w", method, i, err)
			}
		}
	}
	for method, o := range s.Defaults {
		if !knownMethods[method] {
			return fmt.Errorf("defaults: unknown method %q", method)
		}
		if err := validateOutcome(o); err != nil {
			return fmt.Errorf("defaults.%s: %w", method, err)
		}
	}

	for i, c := range s.Cycles {
		if c != CycleOnline && c != CycleOffline {
			return fmt.Errorf("cycles[%d]: must be %q or %q, got %q", i, CycleOnline, CycleOffline, c)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Cycles)); err != nil {
			return err
		}
	}
	return nil
}

func validateOutcome(o string) error {
	switch o {
	case OutcomeOK, OutcomeFail, OutcomeTransport:
		return nil
	default:
		return fmt.Errorf("unknown outcome %q", o)
	}
}

func validateAssertion(index int, a *Assertion, cycles int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	checkCycle := func() error {
		if a.Cycle < 1 || a.Cycle > cycles {
			return fmt.Errorf("assertions[%d]: cycle must be between 1 and %d for %s", index, cycles, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertRemoved, AssertPermanentFailure:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for %s", index, a.Type)
		}
		return checkCycle()
	case AssertQueueLength:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for queue_length", index)
		}
		return checkCycle()
	case AssertCallCount:
		if !knownMethods[a.Method] {
			return fmt.Errorf("assertions[%d]: unknown method %q for call_count", index, a.Method)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
