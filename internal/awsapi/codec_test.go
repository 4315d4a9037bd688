package awsapi

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecs "github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecsboss/internal/structure"
)

func TestStructToWireUsesWireFieldNames(t *testing.T) {
	def := ecstypes.TaskDefinition{
		Family:            aws.String("web-app"),
		Revision:          3,
		TaskDefinitionArn: aws.String("arn:aws:ecs:us-east-1:123:task-definition/web-app:3"),
		ContainerDefinitions: []ecstypes.ContainerDefinition{
			{
				Name:  aws.String("web"),
				Image: aws.String("registry/web:v1"),
				Cpu:   256,
				Environment: []ecstypes.KeyValuePair{
					{Name: aws.String("DEBUG"), Value: aws.String("0")},
				},
			},
		},
	}

	wire, err := structToWire(def)

	require.NoError(t, err)
	assert.Equal(t, "web-app", wire["family"])
	assert.Equal(t, float64(3), wire["revision"])
	assert.Equal(t, "arn:aws:ecs:us-east-1:123:task-definition/web-app:3", wire["taskDefinitionArn"])

	containers := wire["containerDefinitions"].([]interface{})
	require.Len(t, containers, 1)
	web := containers[0].(map[string]interface{})
	assert.Equal(t, "web", web["name"])
	assert.Equal(t, float64(256), web["cpu"])
	env := web["environment"].([]interface{})
	assert.Equal(t, map[string]interface{}{"name": "DEBUG", "value": "0"}, env[0])
}

func TestStructToWireDropsNullFields(t *testing.T) {
	wire, err := structToWire(ecstypes.TaskDefinition{Family: aws.String("web-app")})

	require.NoError(t, err)
	assert.Equal(t, "web-app", wire["family"])
	_, hasRole := wire["taskRoleArn"]
	assert.False(t, hasRole)
}

func TestStructToWireKeepsOpaqueOptionKeys(t *testing.T) {
	def := ecstypes.ContainerDefinition{
		Name: aws.String("web"),
		LogConfiguration: &ecstypes.LogConfiguration{
			LogDriver: ecstypes.LogDriverAwslogs,
			Options: map[string]string{
				"awslogs-group":         "web-app-logs",
				"awslogs-stream-prefix": "web",
			},
		},
		DockerLabels: map[string]string{"Com.example.Team": "platform"},
	}

	wire, err := structToWire(def)

	require.NoError(t, err)
	logConfig := wire["logConfiguration"].(map[string]interface{})
	assert.Equal(t, "awslogs", logConfig["logDriver"])
	options := logConfig["options"].(map[string]interface{})
	assert.Equal(t, "web-app-logs", options["awslogs-group"])
	assert.Equal(t, "web", options["awslogs-stream-prefix"])
	labels := wire["dockerLabels"].(map[string]interface{})
	assert.Equal(t, "platform", labels["Com.example.Team"])
}

func TestDecodeInputFillsRegisterInput(t *testing.T) {
	payload := structure.Structure{
		"family":      "web-app",
		"taskRoleArn": "arn:aws:iam::123:role/web",
		// Remote-only fields are ignored by the input shape.
		"taskDefinitionArn": "arn:aws:ecs:us-east-1:123:task-definition/web-app:3",
		"containerDefinitions": []interface{}{
			map[string]interface{}{
				"name":    "web",
				"image":   "registry/web:v2",
				"command": []interface{}{"serve"},
				"cpu":     float64(256),
			},
		},
	}

	var input awsecs.RegisterTaskDefinitionInput
	require.NoError(t, decodeInput(payload, &input))

	assert.Equal(t, "web-app", aws.ToString(input.Family))
	assert.Equal(t, "arn:aws:iam::123:role/web", aws.ToString(input.TaskRoleArn))
	require.Len(t, input.ContainerDefinitions, 1)
	web := input.ContainerDefinitions[0]
	assert.Equal(t, "web", aws.ToString(web.Name))
	assert.Equal(t, "registry/web:v2", aws.ToString(web.Image))
	assert.Equal(t, []string{"serve"}, web.Command)
	assert.Equal(t, int32(256), web.Cpu)
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "containerDefinitions", lowerFirst("ContainerDefinitions"))
	assert.Equal(t, "cpu", lowerFirst("Cpu"))
	assert.Equal(t, "", lowerFirst(""))
}
