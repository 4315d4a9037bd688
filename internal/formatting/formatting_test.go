package formatting

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecsboss/internal/ecs"
	"ecsboss/internal/structure"
)

func TestRenderDiffsEmptyLog(t *testing.T) {
	var out bytes.Buffer

	RenderDiffs(&out, nil)

	assert.Contains(t, out.String(), "No changes")
}

func TestRenderDiffsRowsAndEnvironmentCells(t *testing.T) {
	var out bytes.Buffer
	diffs := []ecs.Diff{
		{Container: "web", Field: "image", Value: "registry/web:v2", OldValue: "registry/web:v1"},
		{Container: "web", Field: "environment",
			Value:    map[string]string{"DEBUG": "1", "APP_ENV": "production"},
			OldValue: map[string]string{"DEBUG": "0"}},
		{Container: "", Field: "role_arn", Value: "arn:aws:iam::123:role/web"},
	}

	RenderDiffs(&out, diffs)

	rendered := out.String()
	assert.Contains(t, rendered, "registry/web:v2")
	assert.Contains(t, rendered, "registry/web:v1")
	// Environment mappings are flattened into sorted name=value lines.
	assert.Contains(t, rendered, "APP_ENV=production")
	assert.Contains(t, rendered, "DEBUG=1")
	// Task-level diffs have no container.
	assert.Contains(t, rendered, "role_arn")
}

func TestRenderPayloadIsIndentedJSON(t *testing.T) {
	var out bytes.Buffer
	payload := structure.Structure{
		"serviceName":  "web-app",
		"cluster":      "production",
		"desiredCount": float64(2),
	}

	require.NoError(t, RenderPayload(&out, payload))

	var decoded structure.Structure
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, payload, decoded)
	assert.Contains(t, out.String(), "\n  \"cluster\"")
}
