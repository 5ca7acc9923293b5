// Package harness runs scripted polygon scenarios against a store.
//
// A scenario is a fixed sequence of insert, update, lookup and list steps,
// each executed in its own transaction scope, with optional expectations
// checked against what the store returns.
//
// # Scenario Format
//
//	name: triangle_roundtrip
//	description: "insert, look up, update and look up again"
//	steps:
//	  - insert: {name: triangle, sides: 3, sides_english: three}
//	  - lookup: triangle
//	    expect: {sides: 3, sides_english: three}
//	  - update: {name: triangle, sides: 3, sides_english: tri}
//	    expect: {rows: 1}
//	  - lookup: triangle
//	    expect: {sides_english: tri}
//	  - lookup: circle
//	    expect: {found: false}
//	  - list: true
//	    expect: {count: 1}
//
// # Expectations
//
// Expectations are subset matches; only the fields given are checked:
//
//   - lookup: found, sides, sides_english
//   - update: rows (rows affected)
//   - list: count
//
// A storage error aborts the run. An unmet expectation is recorded in
// Result.Errors and the run continues.
//
// # Golden Traces
//
// RunWithGolden runs a scenario against a fresh database and compares the
// JSON trace with testdata/golden/<name>.golden. Fresh databases assign
// pkeys from 1, so traces are byte-stable. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
