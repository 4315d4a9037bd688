package ecs

import (
	"sort"
	"strings"
)

// ContainerOverride is the per-container runtime override derived from the
// diff log, for one-off task runs that should apply only the changed fields
// without registering a new revision.
type ContainerOverride struct {
	Name        string    `json:"name"`
	Command     []string  `json:"command,omitempty"`
	Environment []EnvPair `json:"environment,omitempty"`
}

// EnvPair is the {name, value} wire shape of one environment variable.
type EnvPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Overrides derives the override payload from the diff log. Entries are
// walked in application order and grouped by container: the first entry for a
// container opens its group, later entries update that same group, and output
// order is first appearance. Command diffs split on whitespace into an
// argument list; environment diffs carry the full merged mapping and become a
// name-sorted pair list. Fields with no override representation (image,
// role_arn) open or reuse a group but add nothing to it.
func (d *TaskDefinition) Overrides() []ContainerOverride {
	groups := make(map[string]*ContainerOverride)
	var order []string

	for _, diff := range d.diff {
		if diff.Container == "" {
			continue
		}
		group, ok := groups[diff.Container]
		if !ok {
			group = &ContainerOverride{Name: diff.Container}
			groups[diff.Container] = group
			order = append(order, diff.Container)
		}
		switch diff.Field {
		case "command":
			if command, ok := diff.Value.(string); ok {
				group.Command = strings.Fields(command)
			}
		case "environment":
			if env, ok := diff.Value.(map[string]string); ok {
				group.Environment = envPairs(env)
			}
		}
	}

	overrides := make([]ContainerOverride, 0, len(order))
	for _, name := range order {
		overrides = append(overrides, *groups[name])
	}
	return overrides
}

// envPairs converts an environment mapping to a name-sorted pair list so the
// payload is deterministic.
func envPairs(env map[string]string) []EnvPair {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]EnvPair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, EnvPair{Name: name, Value: env[name]})
	}
	return pairs
}
