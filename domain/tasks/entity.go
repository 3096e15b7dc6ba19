package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

// Status is a task's lifecycle state
type Status string

const (
	StatusUnassigned Status = "UNASSIGNED"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusUnassigned, StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work, optionally assigned to an agent
type Task struct {
	graph.NodeBase
	Status   Status
	Assignee *string
}

// FromProps builds a Task from a property map; unknown keys land in Extra
func FromProps(props map[string]any) (*Task, error) {
	base, err := graph.DecodeBase(props, "status", "assignee")
	if err != nil {
		return nil, err
	}
	t := &Task{NodeBase: base}

	status, _, err := graph.StringProp(props, "status")
	if err != nil {
		return nil, err
	}
	t.Status = Status(status)

	assignee, ok, err := graph.StringProp(props, "assignee")
	if err != nil {
		return nil, err
	}
	if ok && assignee != "" {
		t.Assignee = &assignee
	}
	return t, nil
}

// Properties returns the task as stored on its node
func (t *Task) Properties() map[string]any {
	props := t.NodeBase.Properties()
	props["status"] = string(t.Status)
	if t.Assignee != nil {
		props["assignee"] = *t.Assignee
	}
	return props
}

// MarshalJSON renders the task as its flat property map
func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Properties())
}

// Normalize defaults the status and promotes an unassigned task that has an
// assignee to ASSIGNED
func (t *Task) Normalize() {
	if t.Status == "" {
		t.Status = StatusUnassigned
	}
	if t.Assignee != nil && t.Status == StatusUnassigned {
		t.Status = StatusAssigned
	}
}

// Validate checks the name and the status/assignee rule
func (t *Task) Validate() error {
	if err := t.ValidateName(); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return apperror.NewValidation(fmt.Sprintf("invalid status %q", t.Status))
	}
	if t.Status != StatusUnassigned && t.Assignee == nil {
		return apperror.NewValidation(fmt.Sprintf("cannot set status to %s without an assignee", t.Status))
	}
	return nil
}
