package capabilities

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

func TestCapability_NormalizeUpperCases(t *testing.T) {
	c, err := FromProps(map[string]any{"name": "Coding", "valid_relationships": []any{"uses", "Depends_On"}})
	require.NoError(t, err)

	c.Normalize()
	assert.Equal(t, []string{"USES", "DEPENDS_ON"}, c.ValidRelationships)
	assert.NoError(t, c.Validate())
}

func TestCapability_ValidateRejectsBadType(t *testing.T) {
	c, err := FromProps(map[string]any{"name": "Coding", "valid_relationships": []any{"has space"}})
	require.NoError(t, err)

	c.Normalize()
	assert.True(t, errors.Is(c.Validate(), apperror.ErrInvalidInput))
}

func TestCapability_MarshalJSON(t *testing.T) {
	c, err := FromProps(map[string]any{"id": "coding", "name": "Coding", "level": int64(3)})
	require.NoError(t, err)

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"coding","name":"Coding","level":3,"valid_relationships":[]}`, string(raw))
}
