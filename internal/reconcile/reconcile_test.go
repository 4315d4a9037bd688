package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecsboss/internal/ecs"
	"ecsboss/internal/structure"
)

// mockClusterAPI implements ClusterAPI for testing.
type mockClusterAPI struct {
	latest      structure.Structure
	latestErr   error
	registerErr error
	registered  structure.Structure

	services    []structure.Structure
	describeErr error
	updateErr   error
	updated     structure.Structure

	registerCalls []structure.Structure
	updateCalls   []updateCall
}

type updateCall struct {
	cluster        string
	service        string
	desiredCount   int
	taskDefinition string
}

func (m *mockClusterAPI) LatestTaskDefinition(ctx context.Context, family string) (structure.Structure, error) {
	return m.latest, m.latestErr
}

func (m *mockClusterAPI) RegisterTaskDefinition(ctx context.Context, payload structure.Structure) (structure.Structure, error) {
	m.registerCalls = append(m.registerCalls, payload)
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	if m.registered != nil {
		return m.registered, nil
	}
	return payload, nil
}

func (m *mockClusterAPI) DescribeServices(ctx context.Context, cluster, service string) ([]structure.Structure, error) {
	return m.services, m.describeErr
}

func (m *mockClusterAPI) UpdateService(ctx context.Context, cluster, service string, desiredCount int, taskDefinition string) (structure.Structure, error) {
	m.updateCalls = append(m.updateCalls, updateCall{cluster, service, desiredCount, taskDefinition})
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updated, nil
}

func localTaskDef(image string) *ecs.TaskDefinition {
	return ecs.NewTaskDefinition(structure.Structure{
		"family": "web-app",
		"containerDefinitions": []interface{}{
			map[string]interface{}{"name": "web", "image": image},
		},
	})
}

func localService(raw structure.Structure) *ecs.Service {
	if raw == nil {
		raw = structure.Structure{"serviceName": "web-app"}
	}
	return ecs.NewService("production", raw)
}

func TestSubstituteImages(t *testing.T) {
	def := localTaskDef("%REPOSITORY%:%RELEASE_TAG%")

	SubstituteImages(def, "123.dkr/app", "v5")

	assert.Equal(t, "123.dkr/app:v5", def.Containers()[0]["image"])
}

func TestStripImages(t *testing.T) {
	def := localTaskDef("%REPOSITORY%:%RELEASE_TAG%")

	StripImages(def)

	_, hasImage := def.Containers()[0]["image"]
	assert.False(t, hasImage)
}

func TestCreateTaskDefinitionWhenFamilyMissing(t *testing.T) {
	api := &mockClusterAPI{}
	def := localTaskDef("%REPOSITORY%:%RELEASE_TAG%")

	registered, created, err := New(api).CreateOrUpdateTaskDefinition(context.Background(), def, "123.dkr/app", "v5")

	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, api.registerCalls, 1)

	containers := api.registerCalls[0]["containerDefinitions"].([]interface{})
	web := containers[0].(map[string]interface{})
	assert.Equal(t, "123.dkr/app:v5", web["image"])
	assert.Equal(t, "web-app", registered.Family())
}

func TestUpdateTaskDefinitionMergesRemote(t *testing.T) {
	api := &mockClusterAPI{
		latest: structure.Structure{
			"family":            "web-app",
			"taskDefinitionArn": "arn:aws:ecs:us-east-1:123:task-definition/web-app:7",
			"revision":          float64(7),
			"containerDefinitions": []interface{}{
				map[string]interface{}{
					"name":   "web",
					"image":  "123.dkr/app:v4",
					"cpu":    float64(256),
					"memory": float64(512),
				},
			},
		},
	}
	def := localTaskDef("%REPOSITORY%:%RELEASE_TAG%")

	_, created, err := New(api).CreateOrUpdateTaskDefinition(context.Background(), def, "123.dkr/app", "v5")

	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, api.registerCalls, 1)

	containers := api.registerCalls[0]["containerDefinitions"].([]interface{})
	web := containers[0].(map[string]interface{})
	assert.Equal(t, "123.dkr/app:v5", web["image"])
	// Remote-only fields survive the merge into the register payload.
	assert.Equal(t, float64(256), web["cpu"])
	assert.Equal(t, float64(512), web["memory"])
}

func TestUpdateTaskDefinitionWithoutTagKeepsRemoteImage(t *testing.T) {
	api := &mockClusterAPI{
		latest: structure.Structure{
			"family": "web-app",
			"containerDefinitions": []interface{}{
				map[string]interface{}{"name": "web", "image": "123.dkr/app:v4"},
			},
		},
	}
	def := localTaskDef("%REPOSITORY%:%RELEASE_TAG%")

	_, _, err := New(api).CreateOrUpdateTaskDefinition(context.Background(), def, "", "")

	require.NoError(t, err)
	require.Len(t, api.registerCalls, 1)
	containers := api.registerCalls[0]["containerDefinitions"].([]interface{})
	web := containers[0].(map[string]interface{})
	// Image was stripped locally before the merge, so the remote value wins.
	assert.Equal(t, "123.dkr/app:v4", web["image"])
}

func TestTaskDefinitionTagWithoutRepository(t *testing.T) {
	api := &mockClusterAPI{}

	_, _, err := New(api).CreateOrUpdateTaskDefinition(context.Background(), localTaskDef("x"), "", "v5")

	require.Error(t, err)
	assert.Empty(t, api.registerCalls)
}

func TestRegisterRejectionBecomesSubmissionError(t *testing.T) {
	remoteErr := errors.New("ClientException: Role is not valid")
	api := &mockClusterAPI{registerErr: remoteErr}

	_, _, err := New(api).CreateOrUpdateTaskDefinition(context.Background(), localTaskDef("x"), "", "")

	require.Error(t, err)
	assert.True(t, IsSubmission(err))
	assert.ErrorIs(t, err, remoteErr)
}

func TestServiceCreationRequiredWhenNoRemoteMatch(t *testing.T) {
	api := &mockClusterAPI{}
	local := localService(structure.Structure{
		"serviceName": "web-app",
		"loadBalancers": []interface{}{
			map[string]interface{}{"targetGroupArn": "arn:tg", "containerName": "web", "containerPort": float64(8000)},
		},
	})

	outcome, err := New(api).CreateOrUpdateService(context.Background(), local, "web-app:8")

	require.NoError(t, err)
	assert.True(t, outcome.CreationRequired)
	assert.Nil(t, outcome.Service)
	assert.Empty(t, api.updateCalls)

	payload := outcome.CreatePayload
	assert.Equal(t, "production", payload["cluster"])
	assert.Equal(t, "web-app", payload["serviceName"])
	assert.Equal(t, "web-app:8", payload["taskDefinition"])
	assert.Equal(t, 1, payload["desiredCount"])
	assert.Contains(t, payload, "loadBalancers")
	assert.NotEmpty(t, payload["clientToken"])
}

func TestServiceCreatePayloadKeepsExistingClientToken(t *testing.T) {
	api := &mockClusterAPI{}
	local := localService(structure.Structure{
		"serviceName": "web-app",
		"clientToken": "operator-chosen",
	})

	outcome, err := New(api).CreateOrUpdateService(context.Background(), local, "web-app:8")

	require.NoError(t, err)
	assert.Equal(t, "operator-chosen", outcome.CreatePayload["clientToken"])
}

func TestServiceUpdateMergesRemoteAndSubmits(t *testing.T) {
	api := &mockClusterAPI{
		services: []structure.Structure{{
			"serviceName":  "web-app",
			"serviceArn":   "arn:aws:ecs:us-east-1:123:service/web-app",
			"desiredCount": float64(2),
			"runningCount": float64(2),
		}},
		updated: structure.Structure{"serviceName": "web-app", "desiredCount": float64(3)},
	}
	local := localService(structure.Structure{
		"serviceName":  "web-app",
		"desiredCount": float64(3),
	})

	outcome, err := New(api).CreateOrUpdateService(context.Background(), local, "web-app:8")

	require.NoError(t, err)
	assert.False(t, outcome.CreationRequired)
	require.Len(t, api.updateCalls, 1)
	assert.Equal(t, updateCall{"production", "web-app", 3, "web-app:8"}, api.updateCalls[0])
	assert.Equal(t, 3, outcome.Service.DesiredCount())
}

func TestServiceAmbiguousMatches(t *testing.T) {
	api := &mockClusterAPI{
		services: []structure.Structure{
			{"serviceName": "web-app"},
			{"serviceName": "web-app-blue"},
		},
	}

	_, err := New(api).CreateOrUpdateService(context.Background(), localService(nil), "web-app:8")

	require.Error(t, err)
	assert.True(t, IsAmbiguousService(err))
	var ambiguous *AmbiguousServiceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"web-app", "web-app-blue"}, ambiguous.Matches)
	assert.Empty(t, api.updateCalls)
}

func TestServiceNames(t *testing.T) {
	names := ServiceNames([]structure.Structure{
		{"serviceName": "web-app"},
		{"runningCount": float64(2)},
		{"serviceName": "web-app-blue"},
	})

	assert.Equal(t, []string{"web-app", "web-app-blue"}, names)

	err := &AmbiguousServiceError{Cluster: "production", Service: "web-app", Matches: names}
	assert.Contains(t, err.Error(), "web-app, web-app-blue")
}

func TestServiceUpdateRejectionBecomesSubmissionError(t *testing.T) {
	remoteErr := errors.New("InvalidParameterException")
	api := &mockClusterAPI{
		services:  []structure.Structure{{"serviceName": "web-app"}},
		updateErr: remoteErr,
	}

	_, err := New(api).CreateOrUpdateService(context.Background(), localService(nil), "web-app:8")

	require.Error(t, err)
	assert.True(t, IsSubmission(err))
	assert.ErrorIs(t, err, remoteErr)
}
