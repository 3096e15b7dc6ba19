package capabilities

import (
	"context"
	"log/slog"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/pkg/apperror"
	"github.com/emergent-company/primary-api/pkg/logger"
)

// Service handles business logic for capabilities
type Service struct {
	mgr *graph.Manager
	log *slog.Logger
}

// NewService creates a new capabilities service
func NewService(mgr *graph.Manager, log *slog.Logger) *Service {
	return &Service{
		mgr: mgr,
		log: log.With(logger.Scope("capabilities.svc")),
	}
}

// Create validates and stores a capability
func (s *Service) Create(ctx context.Context, props map[string]any) (*Capability, error) {
	c, err := FromProps(props)
	if err != nil {
		return nil, err
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.ID == "" {
		if c.ID, err = s.mgr.GenerateID(ctx, c.Name); err != nil {
			return nil, err
		}
	}

	node, err := s.mgr.Create(ctx, graph.LabelCapability, c.Properties())
	if err != nil {
		return nil, err
	}
	s.log.Info("capability created", slog.String("id", c.ID))
	return FromProps(node.Props)
}

// Get returns a capability by id
func (s *Service) Get(ctx context.Context, id string) (*Capability, error) {
	node, err := s.mgr.Get(ctx, graph.LabelCapability, id)
	if err != nil {
		return nil, err
	}
	return FromProps(node.Props)
}

// List returns capabilities matching the filter
func (s *Service) List(ctx context.Context, q graph.NodeQuery) ([]*Capability, error) {
	q.Label = graph.LabelCapability
	nodes, err := s.mgr.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*Capability, 0, len(nodes))
	for _, n := range nodes {
		c, err := FromProps(n.Props)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Update applies a partial update. Relationship type names are checked
// against the would-be result and written upper-cased.
func (s *Service) Update(ctx context.Context, id string, updates map[string]any, op graph.Operation) (*Capability, error) {
	current, err := s.mgr.Get(ctx, graph.LabelCapability, id)
	if err != nil {
		return nil, err
	}

	preview, err := graph.Preview(current.Props, updates, op)
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

	if rels, ok := updates["valid_relationships"]; ok && rels != nil && op != graph.OpRemove {
		updates = withUpperRelationships(updates)
	}

	node, err := s.mgr.Update(ctx, graph.LabelCapability, id, updates, op)
	if err != nil {
		return nil, err
	}
	return FromProps(node.Props)
}

// Delete removes a capability and detaches its agents; a missing one is NotFound
func (s *Service) Delete(ctx context.Context, id string) error {
	exists, err := s.mgr.Exists(ctx, graph.LabelCapability, "id", id)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound(string(graph.LabelCapability), id)
	}
	return s.mgr.Delete(ctx, graph.LabelCapability, id)
}

// withUpperRelationships copies updates with valid_relationships upper-cased.
// The preview already rejected malformed entries.
func withUpperRelationships(updates map[string]any) map[string]any {
	out := make(map[string]any, len(updates))
	for k, v := range updates {
		out[k] = v
	}
	rels, _ := graph.StringListProp(updates, "valid_relationships")
	upper := make([]any, 0, len(rels))
	for _, r := range rels {
		t, _ := graph.ParseRelationshipType(r)
		upper = append(upper, t)
	}
	out["valid_relationships"] = upper
	return out
}
