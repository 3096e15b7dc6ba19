package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/pkg/apperror"
	"github.com/emergent-company/primary-api/pkg/logger"
)

// Service handles business logic for tasks
type Service struct {
	mgr *graph.Manager
	log *slog.Logger
}

// NewService creates a new tasks service
func NewService(mgr *graph.Manager, log *slog.Logger) *Service {
	return &Service{
		mgr: mgr,
		log: log.With(logger.Scope("tasks.svc")),
	}
}

// Create validates and stores a task, generating its id from the name when
// none is given, and links it to its assignee
func (s *Service) Create(ctx context.Context, props map[string]any) (*Task, error) {
	t, err := FromProps(props)
	if err != nil {
		return nil, err
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, t.Assignee); err != nil {
		return nil, err
	}

	if t.ID == "" {
		if t.ID, err = s.mgr.GenerateID(ctx, t.Name); err != nil {
			return nil, err
		}
	}

	node, err := s.mgr.Create(ctx, graph.LabelTask, t.Properties())
	if err != nil {
		return nil, err
	}

	if t.Assignee != nil {
		if err := s.link(ctx, t.ID, *t.Assignee); err != nil {
			return nil, err
		}
	}

	s.log.Info("task created", slog.String("id", t.ID), slog.String("status", string(t.Status)))
	return FromProps(node.Props)
}

// Get returns a task by id
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	node, err := s.mgr.Get(ctx, graph.LabelTask, id)
	if err != nil {
		return nil, err
	}
	return FromProps(node.Props)
}

// List returns tasks matching the filter; an empty filter lists all
func (s *Service) List(ctx context.Context, q graph.NodeQuery) ([]*Task, error) {
	q.Label = graph.LabelTask
	nodes, err := s.mgr.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*Task, 0, len(nodes))
	for _, n := range nodes {
		t, err := FromProps(n.Props)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Update applies a partial update after checking the result still satisfies
// the status rule, then keeps the ASSIGNED_TO edge in step with assignee
func (s *Service) Update(ctx context.Context, id string, updates map[string]any, op graph.Operation) (*Task, error) {
	current, err := s.mgr.Get(ctx, graph.LabelTask, id)
	if err != nil {
		return nil, err
	}
	before, err := FromProps(current.Props)
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

	assigneeChanged := !sameAssignee(before.Assignee, after.Assignee)
	if assigneeChanged {
		if err := s.checkAssignee(ctx, after.Assignee); err != nil {
			return nil, err
		}
	}

	node, err := s.mgr.Update(ctx, graph.LabelTask, id, updates, op)
	if err != nil {
		return nil, err
	}

	// status defaulting or promotion can differ from what the update wrote
	if stored, _ := node.Props["status"].(string); stored != string(after.Status) {
		node, err = s.mgr.Update(ctx, graph.LabelTask, id, map[string]any{"status": string(after.Status)}, graph.OpOverwrite)
		if err != nil {
			return nil, err
		}
	}

	if assigneeChanged {
		task := graph.Ref{Label: graph.LabelTask, ID: id}
		if _, err := s.mgr.Unlink(ctx, task, graph.RelAssignedTo, nil); err != nil {
			return nil, err
		}
		if after.Assignee != nil {
			if err := s.link(ctx, id, *after.Assignee); err != nil {
				return nil, err
			}
		}
	}

	return FromProps(node.Props)
}

// Delete removes a task; a missing task is NotFound
func (s *Service) Delete(ctx context.Context, id string) error {
	exists, err := s.mgr.Exists(ctx, graph.LabelTask, "id", id)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound(string(graph.LabelTask), id)
	}
	return s.mgr.Delete(ctx, graph.LabelTask, id)
}

func (s *Service) checkAssignee(ctx context.Context, assignee *string) error {
	if assignee == nil {
		return nil
	}
	ok, err := s.mgr.Exists(ctx, graph.LabelAgent, "id", *assignee)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound(string(graph.LabelAgent), *assignee)
	}
	return nil
}

func (s *Service) link(ctx context.Context, taskID, agentID string) error {
	return s.mgr.CreateRelationship(ctx,
		graph.Ref{Label: graph.LabelTask, ID: taskID},
		graph.RelAssignedTo,
		graph.Ref{Label: graph.LabelAgent, ID: agentID},
		time.Time{},
	)
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
