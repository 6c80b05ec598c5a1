// Package ir provides the shared types of the offline sync engine.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - ActionKind is a closed set; ParseActionKind rejects anything else
//   - Payloads are stored as raw JSON and hashed in canonical form
//   - All JSON tags use snake_case
//   - Wall-clock time is read only through a Clock so tests can control it
package ir
