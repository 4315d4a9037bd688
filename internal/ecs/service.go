package ecs

import "ecsboss/internal/structure"

// Service wraps the wire structure of an ECS service within a cluster.
// Unknown fields round-trip through the wrapped structure.
type Service struct {
	// Cluster is the cluster the service belongs to. It is addressing
	// context, not part of the service's own wire structure.
	Cluster string

	raw structure.Structure
}

// NewService wraps a service wire structure for the given cluster.
func NewService(cluster string, raw structure.Structure) *Service {
	if raw == nil {
		raw = structure.Structure{}
	}
	return &Service{Cluster: cluster, raw: raw}
}

// Structure returns the wrapped wire structure.
func (s *Service) Structure() structure.Structure {
	return s.raw
}

// Name returns the service name.
func (s *Service) Name() string {
	name, _ := s.raw["serviceName"].(string)
	return name
}

// TaskDefinition returns the task definition reference the service runs.
func (s *Service) TaskDefinition() string {
	ref, _ := s.raw["taskDefinition"].(string)
	return ref
}

// DesiredCount returns the desired task count, defaulting to 1 when the field
// is absent.
func (s *Service) DesiredCount() int {
	if _, ok := s.raw["desiredCount"]; !ok {
		return 1
	}
	return intValue(s.raw["desiredCount"])
}

// RunningCount returns the currently running task count.
func (s *Service) RunningCount() int {
	return intValue(s.raw["runningCount"])
}

// SetDesiredCount sets the desired task count.
func (s *Service) SetDesiredCount(count int) {
	s.raw["desiredCount"] = count
}

// SetTaskDefinition points the service at a task definition reference
// ("family:revision" or an ARN).
func (s *Service) SetTaskDefinition(ref string) {
	s.raw["taskDefinition"] = ref
}
