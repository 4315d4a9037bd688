// Package ecs holds the domain types for ECS task definitions and services.
//
// TaskDefinition and Service wrap the generic wire structure so that fields
// the tool never touches round-trip untouched, while the fields it does touch
// get typed access. Every mutating operation on a TaskDefinition records a
// Diff in an ordered log owned by that value; the log later drives both the
// human-readable change report and the container overrides for one-off task
// runs.
package ecs
