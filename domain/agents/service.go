package agents

import (
	"context"
	"log/slog"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/pkg/apperror"
	"github.com/emergent-company/primary-api/pkg/logger"
)

// Service handles business logic for agents
type Service struct {
	mgr *graph.Manager
	log *slog.Logger
}

// NewService creates a new agents service
func NewService(mgr *graph.Manager, log *slog.Logger) *Service {
	return &Service{
		mgr: mgr,
		log: log.With(logger.Scope("agents.svc")),
	}
}

// Create stores the agent node and links each capability, merging
// capability nodes that don't exist yet
func (s *Service) Create(ctx context.Context, props map[string]any) (*Agent, error) {
	a, err := FromProps(props)
	if err != nil {
		return nil, err
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := graph.CheckCapabilityNames(a.Capabilities); err != nil {
		return nil, err
	}

	if a.ID == "" {
		if a.ID, err = s.mgr.GenerateID(ctx, a.Name); err != nil {
			return nil, err
		}
	}

	if _, err := s.mgr.Create(ctx, graph.LabelAgent, a.Properties()); err != nil {
		return nil, err
	}
	if len(a.Capabilities) > 0 {
		if err := s.mgr.UpdateCapabilities(ctx, a.ID, a.Capabilities, graph.OpAppend); err != nil {
			return nil, err
		}
	}

	s.log.Info("agent created", slog.String("id", a.ID), slog.Int("capabilities", len(a.Capabilities)))
	return s.Get(ctx, a.ID)
}

// Get returns an agent with its capabilities
func (s *Service) Get(ctx context.Context, id string) (*Agent, error) {
	node, err := s.mgr.Get(ctx, graph.LabelAgent, id)
	if err != nil {
		return nil, err
	}
	return s.fromNode(ctx, node)
}

// List returns agents matching the filter; an empty filter lists all
func (s *Service) List(ctx context.Context, q graph.NodeQuery) ([]*Agent, error) {
	q.Label = graph.LabelAgent
	nodes, err := s.mgr.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*Agent, 0, len(nodes))
	for _, n := range nodes {
		a, err := s.fromNode(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Update applies property updates and, when updates carries "capabilities",
// edits the CAN_EXECUTE edges with the same operation
func (s *Service) Update(ctx context.Context, id string, updates map[string]any, op graph.Operation) (*Agent, error) {
	current, err := s.mgr.Get(ctx, graph.LabelAgent, id)
	if err != nil {
		return nil, err
	}

	props := make(map[string]any, len(updates))
	for k, v := range updates {
		props[k] = v
	}
	rawCaps, hasCaps := props["capabilities"]
	delete(props, "capabilities")

	var caps []string
	if hasCaps {
		if caps, err = graph.StringListProp(map[string]any{"capabilities": rawCaps}, "capabilities"); err != nil {
			return nil, err
		}
		if err := graph.CheckCapabilityNames(caps); err != nil {
			return nil, err
		}
	}

	preview, err := graph.Preview(current.Props, props, op)
	if err != nil {
		return nil, err
	}
	after, err := FromProps(preview)
	if err != nil {
		return nil, err
	}
	after.Normalize()
	if err := after.Validate(); err != nil {
		return nil, err
	}

	if len(props) > 0 {
		node, err := s.mgr.Update(ctx, graph.LabelAgent, id, props, op)
		if err != nil {
			return nil, err
		}
		// a cleared base_prompt falls back to the default
		if stored, _ := node.Props["base_prompt"].(string); stored != after.BasePrompt {
			if _, err := s.mgr.Update(ctx, graph.LabelAgent, id, map[string]any{"base_prompt": after.BasePrompt}, graph.OpOverwrite); err != nil {
				return nil, err
			}
		}
	}
	if hasCaps {
		if err := s.mgr.UpdateCapabilities(ctx, id, caps, op); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// Delete removes an agent and its edges; a missing agent is NotFound
func (s *Service) Delete(ctx context.Context, id string) error {
	exists, err := s.mgr.Exists(ctx, graph.LabelAgent, "id", id)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound(string(graph.LabelAgent), id)
	}
	return s.mgr.Delete(ctx, graph.LabelAgent, id)
}

func (s *Service) fromNode(ctx context.Context, node graph.Node) (*Agent, error) {
	a, err := FromProps(node.Props)
	if err != nil {
		return nil, err
	}
	if a.Capabilities, err = s.mgr.Capabilities(ctx, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}
