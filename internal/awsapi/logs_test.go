package awsapi

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogsAPI struct {
	groups []logstypes.LogGroup

	createdGroup  string
	retentionDays int32

	eventPages  []*awslogs.GetLogEventsOutput
	eventInputs []*awslogs.GetLogEventsInput
}

func (m *mockLogsAPI) CreateLogGroup(ctx context.Context, params *awslogs.CreateLogGroupInput, optFns ...func(*awslogs.Options)) (*awslogs.CreateLogGroupOutput, error) {
	m.createdGroup = aws.ToString(params.LogGroupName)
	return &awslogs.CreateLogGroupOutput{}, nil
}

func (m *mockLogsAPI) DescribeLogGroups(ctx context.Context, params *awslogs.DescribeLogGroupsInput, optFns ...func(*awslogs.Options)) (*awslogs.DescribeLogGroupsOutput, error) {
	return &awslogs.DescribeLogGroupsOutput{LogGroups: m.groups}, nil
}

func (m *mockLogsAPI) GetLogEvents(ctx context.Context, params *awslogs.GetLogEventsInput, optFns ...func(*awslogs.Options)) (*awslogs.GetLogEventsOutput, error) {
	m.eventInputs = append(m.eventInputs, params)
	page := m.eventPages[0]
	if len(m.eventPages) > 1 {
		m.eventPages = m.eventPages[1:]
	}
	return page, nil
}

func (m *mockLogsAPI) PutRetentionPolicy(ctx context.Context, params *awslogs.PutRetentionPolicyInput, optFns ...func(*awslogs.Options)) (*awslogs.PutRetentionPolicyOutput, error) {
	m.retentionDays = aws.ToInt32(params.RetentionInDays)
	return &awslogs.PutRetentionPolicyOutput{}, nil
}

func TestEnsureLogGroupCreatesWithRetention(t *testing.T) {
	api := &mockLogsAPI{}
	client := &LogsClient{api: api}

	require.NoError(t, client.EnsureLogGroup(context.Background(), "web-app-logs"))

	assert.Equal(t, "web-app-logs", api.createdGroup)
	assert.Equal(t, int32(DefaultLogRetentionDays), api.retentionDays)
}

func TestEnsureLogGroupExistingIsNoop(t *testing.T) {
	api := &mockLogsAPI{
		groups: []logstypes.LogGroup{{LogGroupName: aws.String("web-app-logs")}},
	}
	client := &LogsClient{api: api}

	require.NoError(t, client.EnsureLogGroup(context.Background(), "web-app-logs"))

	assert.Empty(t, api.createdGroup)
}

func TestEnsureLogGroupPrefixMatchStillCreates(t *testing.T) {
	// Describe matches by prefix, so a longer-named group must not satisfy
	// the exact name we need.
	api := &mockLogsAPI{
		groups: []logstypes.LogGroup{{LogGroupName: aws.String("web-app-logs-staging")}},
	}
	client := &LogsClient{api: api}

	require.NoError(t, client.EnsureLogGroup(context.Background(), "web-app-logs"))

	assert.Equal(t, "web-app-logs", api.createdGroup)
}

func TestFollowerReadsForwardAndDeduplicates(t *testing.T) {
	api := &mockLogsAPI{
		eventPages: []*awslogs.GetLogEventsOutput{
			{
				Events: []logstypes.OutputLogEvent{
					{Message: aws.String("starting")},
					{Message: aws.String("listening on :8080")},
				},
				NextForwardToken: aws.String("f/1"),
			},
			// The service repeats the token when the stream has no new
			// events.
			{NextForwardToken: aws.String("f/1")},
		},
	}
	client := &LogsClient{api: api}
	follower := client.Follow("web-app-logs", "web/web/abc123")

	first, err := follower.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"starting", "listening on :8080"}, first)

	second, err := follower.Next(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)

	// First call starts from the head, later calls resume from the token.
	require.Len(t, api.eventInputs, 2)
	assert.Equal(t, true, aws.ToBool(api.eventInputs[0].StartFromHead))
	assert.Nil(t, api.eventInputs[0].NextToken)
	assert.Equal(t, "f/1", aws.ToString(api.eventInputs[1].NextToken))
}
