// Package harness runs offline-sync scenarios against the real queue,
// cache and coordinator with a scripted backend.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: five_cycle_drain
//	description: "What this scenario validates"
//	max_retries: 3
//	actions:
//	  - kind: PLACE_ORDER
//	    payload: { symbol: AAPL, side: buy, quantity: 1 }
//	outcomes:
//	  AddMoney: [fail, fail, ok]
//	defaults:
//	  CancelOrder: fail
//	cycles: [online, online, offline]
//	assertions:
//	  - type: removed
//	    action: act-1
//	    cycle: 1
//
// Actions are enqueued in order before the first cycle and get the IDs
// act-1, act-2, and so on. Outcomes are consumed per backend method in
// call order; once a method's list runs out its default applies, and a
// method without a default succeeds.
//
// # Assertion Types
//
//   - removed: the action left the queue during the given cycle
//   - permanent_failure: the action was dropped after max retries in the given cycle
//   - queue_length: the queue held count actions after the given cycle
//   - call_count: the backend method was called count times in total
//
// # Deterministic Testing
//
// Each run uses a fresh SQLite database, a fixed clock and sequential
// action IDs, so the per-cycle trace is byte-for-byte reproducible and
// can be compared against golden files with RunWithGolden.
package harness
