// Package structure implements the recursive merge engine used to reconcile
// remote resource snapshots with locally authored definitions.
//
// Both task definitions and service definitions travel as JSON-shaped nested
// mappings. A naive full replace would drop remote-only fields (ARNs and other
// scheduler-managed values), and a naive deep merge would corrupt list fields
// that are semantically keyed collections rather than positional arrays. The
// engine therefore walks the overlay recursively and consults an explicit
// registry of per-field merge strategies for the keyed-list cases:
//
//   - containerDefinitions: a list of container mappings keyed by "name"
//   - environment: a list of {name, value} pairs keyed by "name"
//
// Additional keyed-list fields can be registered at startup with
// RegisterStrategy without touching the recursion itself.
package structure
