package agents

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

func TestAgent_FromProps(t *testing.T) {
	a, err := FromProps(map[string]any{
		"id":           "bot",
		"name":         "Bot",
		"capabilities": []any{"Coding"},
		"model":        "small",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Coding"}, a.Capabilities)
	assert.Equal(t, map[string]any{"model": "small"}, a.Extra)

	a.Normalize()
	assert.Equal(t, DefaultBasePrompt, a.BasePrompt)
	assert.NoError(t, a.Validate())
}

func TestAgent_PropertiesOmitCapabilities(t *testing.T) {
	a := &Agent{Capabilities: []string{"Coding"}, BasePrompt: "p"}
	a.ID, a.Name = "bot", "Bot"

	props := a.Properties()
	assert.NotContains(t, props, "capabilities")
	assert.Equal(t, "p", props["base_prompt"])
}

func TestAgent_MarshalJSON(t *testing.T) {
	a := &Agent{BasePrompt: DefaultBasePrompt}
	a.ID, a.Name = "bot", "Bot"

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"bot","name":"Bot","base_prompt":"You are an agent","capabilities":[]}`, string(raw))
}

func TestAgent_Invalid(t *testing.T) {
	_, err := FromProps(map[string]any{"name": "Bot", "capabilities": map[string]any{"x": 1}})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	a, err := FromProps(map[string]any{"name": "  "})
	require.NoError(t, err)
	assert.True(t, errors.Is(a.Validate(), apperror.ErrValidation))
}
