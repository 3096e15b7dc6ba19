package tasks

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

func TestTask_NormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		props      map[string]any
		wantStatus Status
		wantErr    error
	}{
		{"defaults to unassigned", map[string]any{"name": "t"}, StatusUnassigned, nil},
		{"promotes with assignee", map[string]any{"name": "t", "assignee": "bot"}, StatusAssigned, nil},
		{"promotes explicit unassigned", map[string]any{"name": "t", "assignee": "bot", "status": "UNASSIGNED"}, StatusAssigned, nil},
		{"keeps in progress", map[string]any{"name": "t", "assignee": "bot", "status": "IN_PROGRESS"}, StatusInProgress, nil},
		{"completed without assignee", map[string]any{"name": "t", "status": "COMPLETED"}, StatusCompleted, apperror.ErrValidation},
		{"unknown status", map[string]any{"name": "t", "status": "DONE"}, Status("DONE"), apperror.ErrValidation},
		{"missing name", map[string]any{}, StatusUnassigned, apperror.ErrValidation},
		{"empty assignee is none", map[string]any{"name": "t", "assignee": ""}, StatusUnassigned, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := FromProps(tt.props)
			require.NoError(t, err)

			task.Normalize()
			assert.Equal(t, tt.wantStatus, task.Status)

			err = task.Validate()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTask_FromPropsRejectsWrongTypes(t *testing.T) {
	_, err := FromProps(map[string]any{"name": "t", "status": 3})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	_, err = FromProps(map[string]any{"name": "t", "assignee": true})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestTask_MarshalJSONKeepsExtras(t *testing.T) {
	task, err := FromProps(map[string]any{"id": "t1", "name": "T", "status": "ASSIGNED", "assignee": "bot", "priority": int64(2)})
	require.NoError(t, err)

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"t1","name":"T","status":"ASSIGNED","assignee":"bot","priority":2}`, string(data))
}
