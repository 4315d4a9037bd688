package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverridesFromSingleCommandDiff(t *testing.T) {
	def := webTaskDef()
	require.NoError(t, def.SetCommands(map[string]string{"web": "run.sh --debug"}))

	overrides := def.Overrides()

	require.Len(t, overrides, 1)
	assert.Equal(t, ContainerOverride{
		Name:    "web",
		Command: []string{"run.sh", "--debug"},
	}, overrides[0])
}

func TestOverridesGroupCommandAndEnvironment(t *testing.T) {
	def := webTaskDef()
	require.NoError(t, def.SetCommands(map[string]string{"web": "migrate"}))
	require.NoError(t, def.SetEnvironment([]EnvVar{
		{Container: "web", Name: "DEBUG", Value: "1"},
	}))

	overrides := def.Overrides()

	require.Len(t, overrides, 1)
	assert.Equal(t, "web", overrides[0].Name)
	assert.Equal(t, []string{"migrate"}, overrides[0].Command)
	assert.Equal(t, []EnvPair{{Name: "DEBUG", Value: "1"}}, overrides[0].Environment)
}

func TestOverridesInterleavedContainersKeepOneGroupEach(t *testing.T) {
	def := webTaskDef()
	require.NoError(t, def.SetCommands(map[string]string{"web": "first"}))
	require.NoError(t, def.SetCommands(map[string]string{"sidecar": "relay"}))
	// A later diff for an already-grouped container updates the existing
	// group instead of opening a duplicate.
	require.NoError(t, def.SetCommands(map[string]string{"web": "second"}))

	overrides := def.Overrides()

	require.Len(t, overrides, 2)
	assert.Equal(t, "web", overrides[0].Name)
	assert.Equal(t, []string{"second"}, overrides[0].Command)
	assert.Equal(t, "sidecar", overrides[1].Name)
	assert.Equal(t, []string{"relay"}, overrides[1].Command)
}

func TestOverridesIgnoreFieldsWithoutRepresentation(t *testing.T) {
	def := webTaskDef()
	// role_arn has no container and no override shape.
	def.SetRoleARN("arn:aws:iam::123:role/new")
	// image opens a group but contributes nothing to it.
	require.NoError(t, def.SetImages("", map[string]string{"sidecar": "registry/sidecar:v2"}))

	overrides := def.Overrides()

	require.Len(t, overrides, 1)
	assert.Equal(t, ContainerOverride{Name: "sidecar"}, overrides[0])
}

func TestOverridesEmptyDiffLog(t *testing.T) {
	def := webTaskDef()
	assert.Empty(t, def.Overrides())
}

func TestOverridesEnvironmentPairsAreSorted(t *testing.T) {
	def := webTaskDef()
	require.NoError(t, def.SetEnvironment([]EnvVar{
		{Container: "web", Name: "ZETA", Value: "z"},
		{Container: "web", Name: "ALPHA", Value: "a"},
	}))

	overrides := def.Overrides()

	require.Len(t, overrides, 1)
	assert.Equal(t, []EnvPair{
		{Name: "ALPHA", Value: "a"},
		{Name: "DEBUG", Value: "0"},
		{Name: "ZETA", Value: "z"},
	}, overrides[0].Environment)
}
