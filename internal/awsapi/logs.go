package awsapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"ecsboss/pkg/logging"
)

// DefaultLogRetentionDays is the retention applied to log groups this tool
// creates.
const DefaultLogRetentionDays = 7

// logsAPI is the subset of the CloudWatch Logs client the tool uses.
type logsAPI interface {
	CreateLogGroup(ctx context.Context, params *awslogs.CreateLogGroupInput, optFns ...func(*awslogs.Options)) (*awslogs.CreateLogGroupOutput, error)
	DescribeLogGroups(ctx context.Context, params *awslogs.DescribeLogGroupsInput, optFns ...func(*awslogs.Options)) (*awslogs.DescribeLogGroupsOutput, error)
	GetLogEvents(ctx context.Context, params *awslogs.GetLogEventsInput, optFns ...func(*awslogs.Options)) (*awslogs.GetLogEventsOutput, error)
	PutRetentionPolicy(ctx context.Context, params *awslogs.PutRetentionPolicyInput, optFns ...func(*awslogs.Options)) (*awslogs.PutRetentionPolicyOutput, error)
}

// LogsClient is the log retrieval collaborator.
type LogsClient struct {
	api logsAPI
}

// NewLogsClient builds a CloudWatch Logs client from the default
// configuration chain plus opts.
func NewLogsClient(ctx context.Context, opts Options) (*LogsClient, error) {
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &LogsClient{api: awslogs.NewFromConfig(cfg)}, nil
}

// LogGroups returns the names of log groups matching the prefix.
func (c *LogsClient) LogGroups(ctx context.Context, prefix string) ([]string, error) {
	out, err := c.api.DescribeLogGroups(ctx, &awslogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(prefix),
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.LogGroups))
	for _, group := range out.LogGroups {
		names = append(names, aws.ToString(group.LogGroupName))
	}
	return names, nil
}

// EnsureLogGroup creates the log group with the default retention when it
// doesn't already exist.
func (c *LogsClient) EnsureLogGroup(ctx context.Context, name string) error {
	groups, err := c.LogGroups(ctx, name)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if group == name {
			return nil
		}
	}
	if _, err := c.api.CreateLogGroup(ctx, &awslogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	}); err != nil {
		return err
	}
	if _, err := c.api.PutRetentionPolicy(ctx, &awslogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(name),
		RetentionInDays: aws.Int32(DefaultLogRetentionDays),
	}); err != nil {
		return err
	}
	logging.Info("AWS", "Created log group %s", name)
	return nil
}

// Follower reads one log stream forward, page by page. The service hands the
// same forward token back when there is nothing more to read, so Next
// reports no progress by returning an empty page; callers poll again later
// and stop when the producing task is done.
type Follower struct {
	client *LogsClient
	group  string
	stream string
	token  *string
}

// Follow creates a Follower positioned at the head of the stream.
func (c *LogsClient) Follow(group, stream string) *Follower {
	return &Follower{client: c, group: group, stream: stream}
}

// Next fetches the next page of event messages. An empty page with nil error
// means no new events were available.
func (f *Follower) Next(ctx context.Context) ([]string, error) {
	input := &awslogs.GetLogEventsInput{
		LogGroupName:  aws.String(f.group),
		LogStreamName: aws.String(f.stream),
	}
	if f.token != nil {
		input.NextToken = f.token
	} else {
		input.StartFromHead = aws.Bool(true)
	}

	out, err := f.client.api.GetLogEvents(ctx, input)
	if err != nil {
		return nil, err
	}
	if f.token != nil && aws.ToString(out.NextForwardToken) == aws.ToString(f.token) {
		return nil, nil
	}
	f.token = out.NextForwardToken

	messages := make([]string, 0, len(out.Events))
	for _, event := range out.Events {
		messages = append(messages, aws.ToString(event.Message))
	}
	return messages, nil
}
