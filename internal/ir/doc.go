// Package ir provides the data model shared by the metrics-rules engine.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the rule model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - ParsedRule is a closed variant: Reference or Symmetry, nothing else
//   - Sides are "left" and "right"; "both" only selects sides for writes
//   - Snapshots serialize through canonical JSON so identical rule tables
//     always hash to the same content id
//   - All JSON tags use snake_case
package ir
