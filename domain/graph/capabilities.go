package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

type capabilityName struct {
	id   string
	name string
}

// UpdateCapabilities edits the agent's CAN_EXECUTE edges.
//
// overwrite drops every existing edge and links each name; append links each
// name; remove drops the edge to each named capability. Capability nodes are
// merged by id on demand and never deleted here.
func (m *Manager) UpdateCapabilities(ctx context.Context, agentID string, names []string, op Operation) error {
	agent := Ref{Label: LabelAgent, ID: agentID}

	caps, err := capabilityNames(names)
	if err != nil {
		return err
	}

	exists, err := m.Exists(ctx, LabelAgent, "id", agentID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound(string(LabelAgent), agentID)
	}

	switch op {
	case "", OpOverwrite:
		if _, err := m.store.DeleteRelationships(ctx, agent, RelCanExecute, nil); err != nil {
			return err
		}
		return m.linkCapabilities(ctx, agent, caps)
	case OpAppend:
		return m.linkCapabilities(ctx, agent, caps)
	case OpRemove:
		for _, c := range caps {
			target := Ref{Label: LabelCapability, ID: c.id}
			if _, err := m.store.DeleteRelationships(ctx, agent, RelCanExecute, &target); err != nil {
				return err
			}
		}
		return nil
	}
	return apperror.NewInvalidInput(fmt.Sprintf("unknown operation %q", op))
}

func (m *Manager) linkCapabilities(ctx context.Context, agent Ref, caps []capabilityName) error {
	for _, c := range caps {
		target := Ref{Label: LabelCapability, ID: c.id}
		ok, err := m.store.MergeLinkedNode(ctx, agent, RelCanExecute, target, map[string]any{"name": c.name})
		if err != nil {
			return err
		}
		if !ok {
			// agent went away between the existence check and the merge
			return apperror.ErrUpdateFailed.WithMessage(fmt.Sprintf("%s could not be updated", agent))
		}
		m.log.Debug("capability linked", slog.String("agent", agent.ID), slog.String("capability", c.id))
	}
	return nil
}

// Capabilities returns the names of the capabilities the agent can execute, sorted.
func (m *Manager) Capabilities(ctx context.Context, agentID string) ([]string, error) {
	nodes, err := m.Neighbors(ctx, Ref{Label: LabelAgent, ID: agentID}, RelCanExecute)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		name, _ := n.Props["name"].(string)
		if name == "" {
			name = n.ID()
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// CheckCapabilityNames reports the first name no capability id can be
// derived from.
func CheckCapabilityNames(names []string) error {
	_, err := capabilityNames(names)
	return err
}

// capabilityNames resolves every name up front so a bad one fails before any edge changes.
func capabilityNames(names []string) ([]capabilityName, error) {
	seen := map[string]bool{}
	out := make([]capabilityName, 0, len(names))
	for _, name := range names {
		id, err := CapabilityID(name)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, capabilityName{id: id, name: name})
	}
	return out, nil
}
