package ecs

import (
	"encoding/json"
	"fmt"
)

// Diff is one recorded field change on a task definition. Container is empty
// for definition-level fields such as the role ARN. The log keeps one entry
// per setter application, in application order; a set that writes the value
// already in place is still recorded.
type Diff struct {
	// Container is the container the change applies to, or "" for
	// definition-level fields.
	Container string

	// Field is the changed field name ("image", "command", "environment",
	// "role_arn").
	Field string

	// Value is the new value.
	Value interface{}

	// OldValue is the value before the change.
	OldValue interface{}
}

// String renders the diff for change reports.
func (d Diff) String() string {
	if d.Container != "" {
		return fmt.Sprintf("Changed %s of container '%s' to: %s (was: %s)",
			d.Field, d.Container, jsonValue(d.Value), jsonValue(d.OldValue))
	}
	return fmt.Sprintf("Changed %s to: %s (was: %s)",
		d.Field, jsonValue(d.Value), jsonValue(d.OldValue))
}

func jsonValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
