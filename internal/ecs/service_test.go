package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecsboss/internal/structure"
)

func TestServiceAccessors(t *testing.T) {
	svc := NewService("production", structure.Structure{
		"serviceName":    "web-app",
		"taskDefinition": "web-app:7",
		"desiredCount":   float64(3),
		"runningCount":   float64(2),
	})

	assert.Equal(t, "production", svc.Cluster)
	assert.Equal(t, "web-app", svc.Name())
	assert.Equal(t, "web-app:7", svc.TaskDefinition())
	assert.Equal(t, 3, svc.DesiredCount())
	assert.Equal(t, 2, svc.RunningCount())
}

func TestServiceDesiredCountDefaultsToOne(t *testing.T) {
	svc := NewService("production", structure.Structure{"serviceName": "web-app"})
	assert.Equal(t, 1, svc.DesiredCount())
}

func TestServiceSetters(t *testing.T) {
	svc := NewService("production", structure.Structure{"serviceName": "web-app"})

	svc.SetDesiredCount(5)
	svc.SetTaskDefinition("web-app:8")

	assert.Equal(t, 5, svc.DesiredCount())
	assert.Equal(t, "web-app:8", svc.TaskDefinition())
	assert.Equal(t, 5, svc.Structure()["desiredCount"])
	assert.Equal(t, "web-app:8", svc.Structure()["taskDefinition"])
}
