package awsapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"ecsboss/internal/ecs"
	"ecsboss/internal/structure"
	"ecsboss/pkg/logging"
)

// StartedBy tags one-off tasks started by this tool.
const StartedBy = "ecsboss"

// ecsAPI is the subset of the ECS service client the tool uses. The concrete
// client satisfies it; tests substitute their own.
type ecsAPI interface {
	DescribeServices(ctx context.Context, params *awsecs.DescribeServicesInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeServicesOutput, error)
	DescribeTaskDefinition(ctx context.Context, params *awsecs.DescribeTaskDefinitionInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeTaskDefinitionOutput, error)
	DescribeTasks(ctx context.Context, params *awsecs.DescribeTasksInput, optFns ...func(*awsecs.Options)) (*awsecs.DescribeTasksOutput, error)
	ListTaskDefinitionFamilies(ctx context.Context, params *awsecs.ListTaskDefinitionFamiliesInput, optFns ...func(*awsecs.Options)) (*awsecs.ListTaskDefinitionFamiliesOutput, error)
	ListTasks(ctx context.Context, params *awsecs.ListTasksInput, optFns ...func(*awsecs.Options)) (*awsecs.ListTasksOutput, error)
	RegisterTaskDefinition(ctx context.Context, params *awsecs.RegisterTaskDefinitionInput, optFns ...func(*awsecs.Options)) (*awsecs.RegisterTaskDefinitionOutput, error)
	RunTask(ctx context.Context, params *awsecs.RunTaskInput, optFns ...func(*awsecs.Options)) (*awsecs.RunTaskOutput, error)
	UpdateService(ctx context.Context, params *awsecs.UpdateServiceInput, optFns ...func(*awsecs.Options)) (*awsecs.UpdateServiceOutput, error)
}

// ECSClient is the cluster control plane collaborator. It satisfies
// reconcile.ClusterAPI.
type ECSClient struct {
	api ecsAPI
}

// NewECSClient builds an ECS client from the default configuration chain
// plus opts.
func NewECSClient(ctx context.Context, opts Options) (*ECSClient, error) {
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &ECSClient{api: awsecs.NewFromConfig(cfg)}, nil
}

// LatestTaskDefinition returns the newest revision of family as a wire
// structure, or nil when the family was never registered.
func (c *ECSClient) LatestTaskDefinition(ctx context.Context, family string) (structure.Structure, error) {
	families, err := c.api.ListTaskDefinitionFamilies(ctx, &awsecs.ListTaskDefinitionFamiliesInput{
		FamilyPrefix: aws.String(family),
	})
	if err != nil {
		return nil, err
	}
	known := false
	for _, name := range families.Families {
		if name == family {
			known = true
			break
		}
	}
	if !known {
		return nil, nil
	}

	described, err := c.api.DescribeTaskDefinition(ctx, &awsecs.DescribeTaskDefinitionInput{
		TaskDefinition: aws.String(family),
	})
	if err != nil {
		return nil, err
	}
	return structToWire(described.TaskDefinition)
}

// RegisterTaskDefinition registers the payload as a new revision and returns
// the stored definition.
func (c *ECSClient) RegisterTaskDefinition(ctx context.Context, payload structure.Structure) (structure.Structure, error) {
	var input awsecs.RegisterTaskDefinitionInput
	if err := decodeInput(payload, &input); err != nil {
		return nil, err
	}
	out, err := c.api.RegisterTaskDefinition(ctx, &input)
	if err != nil {
		return nil, err
	}
	logging.Debug("AWS", "Registered task definition %s", aws.ToString(out.TaskDefinition.TaskDefinitionArn))
	return structToWire(out.TaskDefinition)
}

// DescribeServices returns the remote services matching name within cluster.
// A MISSING failure is the absence signal, not an error.
func (c *ECSClient) DescribeServices(ctx context.Context, cluster, service string) ([]structure.Structure, error) {
	out, err := c.api.DescribeServices(ctx, &awsecs.DescribeServicesInput{
		Cluster:  aws.String(cluster),
		Services: []string{service},
	})
	if err != nil {
		return nil, err
	}
	services := make([]structure.Structure, 0, len(out.Services))
	for _, svc := range out.Services {
		wire, err := structToWire(svc)
		if err != nil {
			return nil, err
		}
		services = append(services, wire)
	}
	return services, nil
}

// UpdateService applies the desired count and task definition reference.
func (c *ECSClient) UpdateService(ctx context.Context, cluster, service string, desiredCount int, taskDefinition string) (structure.Structure, error) {
	out, err := c.api.UpdateService(ctx, &awsecs.UpdateServiceInput{
		Cluster:        aws.String(cluster),
		Service:        aws.String(service),
		DesiredCount:   aws.Int32(int32(desiredCount)),
		TaskDefinition: aws.String(taskDefinition),
	})
	if err != nil {
		return nil, err
	}
	return structToWire(out.Service)
}

// RunTask starts count one-off tasks from the task definition reference with
// the given container overrides and returns the started task ARNs.
func (c *ECSClient) RunTask(ctx context.Context, cluster, taskDefinition string, count int, overrides []ecs.ContainerOverride) ([]string, error) {
	out, err := c.api.RunTask(ctx, &awsecs.RunTaskInput{
		Cluster:        aws.String(cluster),
		TaskDefinition: aws.String(taskDefinition),
		Count:          aws.Int32(int32(count)),
		StartedBy:      aws.String(StartedBy),
		Overrides:      taskOverride(overrides),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Failures) > 0 {
		return nil, fmt.Errorf("starting task: %s", failureSummary(out.Failures))
	}
	arns := make([]string, 0, len(out.Tasks))
	for _, task := range out.Tasks {
		arns = append(arns, aws.ToString(task.TaskArn))
	}
	return arns, nil
}

// TaskStatuses returns the last known status (PENDING, RUNNING, STOPPED) for
// each task ARN.
func (c *ECSClient) TaskStatuses(ctx context.Context, cluster string, taskARNs []string) ([]string, error) {
	out, err := c.api.DescribeTasks(ctx, &awsecs.DescribeTasksInput{
		Cluster: aws.String(cluster),
		Tasks:   taskARNs,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Failures) > 0 {
		return nil, fmt.Errorf("describing tasks: %s", failureSummary(out.Failures))
	}
	statuses := make([]string, 0, len(out.Tasks))
	for _, task := range out.Tasks {
		statuses = append(statuses, aws.ToString(task.LastStatus))
	}
	return statuses, nil
}

// RunningCount returns how many tasks of the service's current task
// definition are RUNNING.
func (c *ECSClient) RunningCount(ctx context.Context, cluster, service string) (int, error) {
	services, err := c.DescribeServices(ctx, cluster, service)
	if err != nil {
		return 0, err
	}
	if len(services) != 1 {
		return 0, fmt.Errorf("expected one service named %s, found %d", service, len(services))
	}
	return ecs.NewService(cluster, services[0]).RunningCount(), nil
}

func taskOverride(overrides []ecs.ContainerOverride) *ecstypes.TaskOverride {
	if len(overrides) == 0 {
		return nil
	}
	containerOverrides := make([]ecstypes.ContainerOverride, 0, len(overrides))
	for _, o := range overrides {
		override := ecstypes.ContainerOverride{
			Name:    aws.String(o.Name),
			Command: o.Command,
		}
		for _, pair := range o.Environment {
			override.Environment = append(override.Environment, ecstypes.KeyValuePair{
				Name:  aws.String(pair.Name),
				Value: aws.String(pair.Value),
			})
		}
		containerOverrides = append(containerOverrides, override)
	}
	return &ecstypes.TaskOverride{ContainerOverrides: containerOverrides}
}

func failureSummary(failures []ecstypes.Failure) string {
	parts := make([]string, 0, len(failures))
	for _, failure := range failures {
		parts = append(parts, fmt.Sprintf("%s (%s)", aws.ToString(failure.Reason), aws.ToString(failure.Arn)))
	}
	return strings.Join(parts, "; ")
}
