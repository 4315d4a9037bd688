package ecs

import (
	"fmt"
	"sort"
	"strings"

	"ecsboss/internal/structure"
)

// TaskDefinition wraps the wire structure of an ECS task definition. Fields
// the tool understands get typed accessors; everything else stays in the
// wrapped structure and round-trips untouched. The value also owns the
// ordered diff log of changes applied to it.
type TaskDefinition struct {
	raw  structure.Structure
	diff []Diff
}

// EnvVar is one environment-variable assignment targeted at a container.
type EnvVar struct {
	Container string
	Name      string
	Value     string
}

// NewTaskDefinition wraps a wire structure. A nil structure yields an empty
// definition.
func NewTaskDefinition(raw structure.Structure) *TaskDefinition {
	if raw == nil {
		raw = structure.Structure{}
	}
	return &TaskDefinition{raw: raw}
}

// Structure returns the wrapped wire structure. Mutations made through the
// setters are visible here.
func (d *TaskDefinition) Structure() structure.Structure {
	return d.raw
}

// Family returns the task definition family name.
func (d *TaskDefinition) Family() string {
	family, _ := d.raw["family"].(string)
	return family
}

// Revision returns the registered revision number, or 0 when unregistered.
func (d *TaskDefinition) Revision() int {
	return intValue(d.raw["revision"])
}

// ARN returns the task definition ARN assigned by the scheduler.
func (d *TaskDefinition) ARN() string {
	arn, _ := d.raw["taskDefinitionArn"].(string)
	return arn
}

// RoleARN returns the task role ARN.
func (d *TaskDefinition) RoleARN() string {
	arn, _ := d.raw["taskRoleArn"].(string)
	return arn
}

// FamilyRevision returns the "family:revision" reference used to address this
// exact revision.
func (d *TaskDefinition) FamilyRevision() string {
	return fmt.Sprintf("%s:%d", d.Family(), d.Revision())
}

// Containers returns the container definitions. The returned mappings alias
// the wrapped structure; callers mutate the definition through them.
func (d *TaskDefinition) Containers() []structure.Structure {
	list, _ := d.raw["containerDefinitions"].([]interface{})
	containers := make([]structure.Structure, 0, len(list))
	for _, element := range list {
		if m, ok := element.(map[string]interface{}); ok {
			containers = append(containers, m)
		}
	}
	return containers
}

// ContainerNames returns the container names in definition order.
func (d *TaskDefinition) ContainerNames() []string {
	var names []string
	for _, container := range d.Containers() {
		if name, ok := container["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names
}

// Volumes returns the volume list, which the tool passes through unchanged.
func (d *TaskDefinition) Volumes() []interface{} {
	volumes, _ := d.raw["volumes"].([]interface{})
	return volumes
}

// Diffs returns a copy of the ordered diff log.
func (d *TaskDefinition) Diffs() []Diff {
	out := make([]Diff, len(d.diff))
	copy(out, d.diff)
	return out
}

// RegisterPayload returns the structure submitted on registration: the
// family, container definitions, volumes and role ARN of this definition.
func (d *TaskDefinition) RegisterPayload() structure.Structure {
	payload := structure.Structure{
		"family":               d.raw["family"],
		"containerDefinitions": d.raw["containerDefinitions"],
		"taskRoleArn":          d.RoleARN(),
	}
	if volumes, ok := d.raw["volumes"]; ok {
		payload["volumes"] = volumes
	}
	return payload
}

// SetImages updates container images. Containers named in images receive that
// exact image; when tag is non-empty every remaining container has the tag of
// its current image replaced. Each write appends a Diff, including writes
// that leave the value unchanged (the log is an audit of applied operations,
// not of effective changes).
//
// Returns ContainerNotFoundError without touching anything when images names
// an unknown container.
func (d *TaskDefinition) SetImages(tag string, images map[string]string) error {
	if err := d.validateContainers(mapKeys(images)); err != nil {
		return err
	}
	for _, container := range d.Containers() {
		name, _ := container["name"].(string)
		if image, ok := images[name]; ok {
			d.record(name, "image", image, container["image"])
			container["image"] = image
		} else if tag != "" {
			current, _ := container["image"].(string)
			image := retag(current, strings.TrimSpace(tag))
			d.record(name, "image", image, container["image"])
			container["image"] = image
		}
	}
	return nil
}

// SetCommands replaces container commands. The diff records the command as
// the given string; the wire value is a single-element list.
func (d *TaskDefinition) SetCommands(commands map[string]string) error {
	if err := d.validateContainers(mapKeys(commands)); err != nil {
		return err
	}
	for _, container := range d.Containers() {
		name, _ := container["name"].(string)
		command, ok := commands[name]
		if !ok {
			continue
		}
		d.record(name, "command", command, container["command"])
		container["command"] = []interface{}{command}
	}
	return nil
}

// SetEnvironment merges environment variables into their target containers.
// Each touched container gets exactly one Diff carrying the full previous and
// full merged mapping; that granularity is what the override builder needs to
// reconstruct a complete environment override later.
func (d *TaskDefinition) SetEnvironment(vars []EnvVar) error {
	perContainer := make(map[string][]EnvVar)
	for _, v := range vars {
		perContainer[v.Container] = append(perContainer[v.Container], v)
	}
	if err := d.validateContainers(envKeys(perContainer)); err != nil {
		return err
	}
	for _, container := range d.Containers() {
		name, _ := container["name"].(string)
		if assignments, ok := perContainer[name]; ok {
			d.applyEnvironment(container, assignments)
		}
	}
	return nil
}

// applyEnvironment merges assignments into one container's environment,
// preserving the order of existing variables and appending new ones in
// assignment order.
func (d *TaskDefinition) applyEnvironment(container structure.Structure, assignments []EnvVar) {
	name, _ := container["name"].(string)

	old := make(map[string]string)
	var order []string
	if pairs, ok := container["environment"].([]interface{}); ok {
		for _, element := range pairs {
			pair, ok := element.(map[string]interface{})
			if !ok {
				continue
			}
			varName, _ := pair["name"].(string)
			varValue, _ := pair["value"].(string)
			old[varName] = varValue
			order = append(order, varName)
		}
	}

	merged := make(map[string]string, len(old)+len(assignments))
	for k, v := range old {
		merged[k] = v
	}
	for _, assignment := range assignments {
		if _, known := merged[assignment.Name]; !known {
			order = append(order, assignment.Name)
		}
		merged[assignment.Name] = assignment.Value
	}

	d.record(name, "environment", merged, old)

	pairs := make([]interface{}, 0, len(order))
	for _, varName := range order {
		pairs = append(pairs, map[string]interface{}{"name": varName, "value": merged[varName]})
	}
	container["environment"] = pairs
}

// SetRoleARN sets the task role ARN. An empty ARN is a no-op.
func (d *TaskDefinition) SetRoleARN(arn string) {
	if arn == "" {
		return
	}
	d.record("", "role_arn", arn, d.raw["taskRoleArn"])
	d.raw["taskRoleArn"] = arn
}

// validateContainers verifies every name exists in the definition; on any
// unknown name the whole call is rejected and no change is applied.
func (d *TaskDefinition) validateContainers(names []string) error {
	known := make(map[string]bool)
	for _, name := range d.ContainerNames() {
		known[name] = true
	}
	sort.Strings(names)
	for _, name := range names {
		if !known[name] {
			return NewContainerNotFoundError(name)
		}
	}
	return nil
}

func (d *TaskDefinition) record(container, field string, value, oldValue interface{}) {
	d.diff = append(d.diff, Diff{
		Container: container,
		Field:     field,
		Value:     value,
		OldValue:  oldValue,
	})
}

// retag swaps the tag of an image reference, leaving the repository part
// alone. An untagged reference just gains the tag.
func retag(image, tag string) string {
	if i := strings.LastIndex(image, ":"); i >= 0 {
		image = image[:i]
	}
	return image + ":" + tag
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func envKeys(m map[string][]EnvVar) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func intValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
