// Package reconcile decides how a locally authored definition reaches the
// cluster: registered as-is when no remote counterpart exists, or merged over
// the remote snapshot first so scheduler-managed fields survive the update.
// Services are never created by this tool; a missing remote service is
// reported back as a gap for the operator to close.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ecsboss/internal/ecs"
	"ecsboss/internal/structure"
	"ecsboss/pkg/logging"
)

// Placeholder tokens substituted into container images before a task
// definition is reconciled.
const (
	RepositoryPlaceholder = "%REPOSITORY%"
	ReleaseTagPlaceholder = "%RELEASE_TAG%"
)

// serviceCreateKeys are the optional local fields carried into the payload
// reported when a service must be created manually.
var serviceCreateKeys = []string{
	"loadBalancers",
	"clientToken",
	"role",
	"deploymentConfiguration",
	"placementConstraints",
	"placementStrategy",
}

// ClusterAPI is the cluster control plane consumed by the orchestrator.
// Implemented by internal/awsapi against ECS; mocked in tests.
type ClusterAPI interface {
	// LatestTaskDefinition returns the newest revision of the family, or nil
	// when the family has never been registered.
	LatestTaskDefinition(ctx context.Context, family string) (structure.Structure, error)

	// RegisterTaskDefinition registers a new revision and returns the
	// resulting definition as stored remotely.
	RegisterTaskDefinition(ctx context.Context, payload structure.Structure) (structure.Structure, error)

	// DescribeServices returns every remote service matching the name within
	// the cluster.
	DescribeServices(ctx context.Context, cluster, service string) ([]structure.Structure, error)

	// UpdateService applies the desired count and task definition reference
	// and returns the updated service.
	UpdateService(ctx context.Context, cluster, service string, desiredCount int, taskDefinition string) (structure.Structure, error)
}

// ServiceOutcome is the result of reconciling a service definition.
type ServiceOutcome struct {
	// Service is the updated remote service; nil when creation is required.
	Service *ecs.Service

	// CreationRequired is set when no remote service exists. The tool never
	// auto-creates services, it only reports the gap.
	CreationRequired bool

	// CreatePayload is the structure an operator would submit to create the
	// missing service. Only set alongside CreationRequired.
	CreatePayload structure.Structure
}

// Orchestrator reconciles local definitions against remote cluster state.
type Orchestrator struct {
	api ClusterAPI
}

// New creates an Orchestrator over the given control plane.
func New(api ClusterAPI) *Orchestrator {
	return &Orchestrator{api: api}
}

// CreateOrUpdateTaskDefinition reconciles a local task definition: image
// placeholders are substituted (or the image field stripped when no tag is
// supplied, so the remote-managed image survives the merge), the remote
// latest revision is merged underneath when one exists, and the result is
// registered. Returns the registered definition and whether the family was
// newly created.
//
// The substitute-or-strip step must happen before the merge; merging first
// would blindly overlay a placeholder image onto the remote value.
func (o *Orchestrator) CreateOrUpdateTaskDefinition(ctx context.Context, local *ecs.TaskDefinition, repository, tag string) (*ecs.TaskDefinition, bool, error) {
	if tag != "" && repository == "" {
		return nil, false, errors.New("release tag supplied without a repository")
	}

	if tag != "" {
		SubstituteImages(local, repository, tag)
	} else {
		StripImages(local)
	}

	family := local.Family()
	remote, err := o.api.LatestTaskDefinition(ctx, family)
	if err != nil {
		return nil, false, fmt.Errorf("describing latest revision of %s: %w", family, err)
	}

	created := remote == nil
	payload := local.RegisterPayload()
	if !created {
		logging.Info("Reconcile", "Merging remote task definition %s with local definition", family)
		merged := ecs.NewTaskDefinition(structure.Merge(remote, local.Structure()))
		payload = merged.RegisterPayload()
	} else {
		logging.Info("Reconcile", "Remote task definition %s doesn't exist, it will be created", family)
	}

	registered, err := o.api.RegisterTaskDefinition(ctx, payload)
	if err != nil {
		return nil, false, &SubmissionError{Operation: "RegisterTaskDefinition", Cause: err}
	}
	return ecs.NewTaskDefinition(registered), created, nil
}

// CreateOrUpdateService reconciles a local service definition against the
// remote service of the same cluster and name, pointing it at
// taskDefinition. Exactly one remote match is expected: zero routes to the
// creation-required outcome, more than one is an AmbiguousServiceError.
func (o *Orchestrator) CreateOrUpdateService(ctx context.Context, local *ecs.Service, taskDefinition string) (*ServiceOutcome, error) {
	cluster := local.Cluster
	name := local.Name()

	remotes, err := o.api.DescribeServices(ctx, cluster, name)
	if err != nil {
		return nil, fmt.Errorf("describing service %s in cluster %s: %w", name, cluster, err)
	}

	switch len(remotes) {
	case 0:
		logging.Info("Reconcile", "Service %s doesn't exist in cluster %s, it must be created manually", name, cluster)
		return &ServiceOutcome{
			CreationRequired: true,
			CreatePayload:    serviceCreatePayload(local, taskDefinition),
		}, nil
	case 1:
		// fall through to the update path below
	default:
		return nil, &AmbiguousServiceError{
			Cluster: cluster,
			Service: name,
			Matches: ServiceNames(remotes),
		}
	}

	logging.Info("Reconcile", "Merging remote service %s with local definition", name)
	merged := ecs.NewService(cluster, structure.Merge(remotes[0], local.Structure()))

	updated, err := o.api.UpdateService(ctx, cluster, name, merged.DesiredCount(), taskDefinition)
	if err != nil {
		return nil, &SubmissionError{Operation: "UpdateService", Cause: err}
	}
	return &ServiceOutcome{Service: ecs.NewService(cluster, updated)}, nil
}

// SubstituteImages replaces the repository and release-tag placeholder tokens
// in every container image of the definition.
func SubstituteImages(def *ecs.TaskDefinition, repository, tag string) {
	for _, container := range def.Containers() {
		image, ok := container["image"].(string)
		if !ok {
			continue
		}
		image = strings.ReplaceAll(image, RepositoryPlaceholder, repository)
		image = strings.ReplaceAll(image, ReleaseTagPlaceholder, tag)
		container["image"] = image
	}
}

// StripImages removes the image field from every container so the merge
// leaves the remote-managed image value untouched.
func StripImages(def *ecs.TaskDefinition) {
	for _, container := range def.Containers() {
		delete(container, "image")
	}
}

// serviceCreatePayload assembles the structure an operator would submit to
// create the missing service, generating a client token when the local
// definition carries none.
func serviceCreatePayload(local *ecs.Service, taskDefinition string) structure.Structure {
	payload := structure.Structure{
		"cluster":        local.Cluster,
		"serviceName":    local.Name(),
		"taskDefinition": taskDefinition,
		"desiredCount":   local.DesiredCount(),
	}
	for _, key := range serviceCreateKeys {
		if value, ok := local.Structure()[key]; ok {
			payload[key] = value
		}
	}
	if _, ok := payload["clientToken"]; !ok {
		payload["clientToken"] = uuid.NewString()
	}
	return payload
}

// ServiceNames extracts the service names from remote service structures,
// for reporting which services matched an ambiguous lookup.
func ServiceNames(services []structure.Structure) []string {
	names := make([]string, 0, len(services))
	for _, svc := range services {
		if name, ok := svc["serviceName"].(string); ok {
			names = append(names, name)
		}
	}
	return names
}
