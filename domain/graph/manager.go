package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/pkg/apperror"
	"github.com/emergent-company/primary-api/pkg/logger"
)

// Manager is the generic entity layer over Store. It validates payloads,
// applies partial-update semantics and maps store results to domain errors.
//
// Multi-step operations (check then create, delete then relink) are separate
// statements and are not atomic.
type Manager struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewManager creates a new entity manager
func NewManager(store Store, log *slog.Logger) *Manager {
	return &Manager{
		store: store,
		log:   log.With(logger.Scope("graph.manager")),
		now:   time.Now,
	}
}

// Create inserts a node under label. props must carry a string id that is
// not yet used under label.
func (m *Manager) Create(ctx context.Context, label Label, props map[string]any) (Node, error) {
	if err := checkLabel(label, true); err != nil {
		return Node{}, err
	}
	clean, err := NormalizeProps(props)
	if err != nil {
		return Node{}, err
	}
	id, _ := clean["id"].(string)
	if id == "" {
		return Node{}, apperror.NewInvalidInput("id is required")
	}

	exists, err := m.Exists(ctx, label, "id", id)
	if err != nil {
		return Node{}, err
	}
	if exists {
		return Node{}, apperror.NewAlreadyExists(label.Name(), id)
	}

	node, err := m.store.CreateNode(ctx, label, clean)
	if err != nil {
		return Node{}, err
	}
	nodesCreated.WithLabelValues(string(label)).Inc()

	m.log.Debug("node created", slog.String("label", string(label)), slog.String("id", id))
	return node, nil
}

// Get returns the node with id. An empty label searches every label.
func (m *Manager) Get(ctx context.Context, label Label, id string) (Node, error) {
	nodes, err := m.store.FindNodes(ctx, NodeQuery{Label: label, Property: "id", Value: id})
	if err != nil {
		return Node{}, err
	}
	if len(nodes) == 0 {
		return Node{}, apperror.NewNotFound(label.Name(), id)
	}
	if len(nodes) > 1 {
		m.log.Warn("duplicate node id",
			slog.String("label", label.Name()),
			slog.String("id", id),
			slog.Int("count", len(nodes)),
		)
	}
	return nodes[0], nil
}

// List returns every node under label.
func (m *Manager) List(ctx context.Context, label Label) ([]Node, error) {
	return m.store.FindNodes(ctx, NodeQuery{Label: label})
}

// Find returns nodes whose property equals value.
func (m *Manager) Find(ctx context.Context, label Label, property string, value any) ([]Node, error) {
	v, err := NormalizeValue(value)
	if err != nil {
		return nil, err
	}
	return m.store.FindNodes(ctx, NodeQuery{Label: label, Property: property, Value: v, Match: MatchExact})
}

// FindContaining returns nodes whose string property contains substr.
func (m *Manager) FindContaining(ctx context.Context, label Label, property, substr string) ([]Node, error) {
	return m.store.FindNodes(ctx, NodeQuery{Label: label, Property: property, Value: substr, Match: MatchContains})
}

// Search dispatches to List, Find or FindContaining.
func (m *Manager) Search(ctx context.Context, q NodeQuery) ([]Node, error) {
	switch {
	case q.Property == "":
		return m.List(ctx, q.Label)
	case q.Match == MatchContains:
		return m.FindContaining(ctx, q.Label, q.Property, fmt.Sprint(q.Value))
	default:
		return m.Find(ctx, q.Label, q.Property, q.Value)
	}
}

// Exists reports whether any node under label has property = value.
func (m *Manager) Exists(ctx context.Context, label Label, property string, value any) (bool, error) {
	n, err := m.store.CountNodes(ctx, NodeQuery{Label: label, Property: property, Value: value})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update applies updates to the node according to op and returns the result.
//
// overwrite sets each key; a nil value removes it. append unions list values
// into a stored list and otherwise behaves like overwrite. remove deletes each
// key and ignores the values.
func (m *Manager) Update(ctx context.Context, label Label, id string, updates map[string]any, op Operation) (Node, error) {
	switch op {
	case "", OpOverwrite, OpAppend, OpRemove:
	default:
		return Node{}, apperror.NewInvalidInput(fmt.Sprintf("unknown operation %q", op))
	}
	if _, ok := updates["id"]; ok {
		return Node{}, apperror.NewInvalidInput("id cannot be updated")
	}
	for k := range updates {
		if err := checkPropertyName(k); err != nil {
			return Node{}, err
		}
	}

	current, err := m.Get(ctx, label, id)
	if err != nil {
		return Node{}, err
	}
	if len(updates) == 0 {
		return current, nil
	}

	set, remove, err := planUpdate(current.Props, updates, op)
	if err != nil {
		return Node{}, err
	}
	if len(set) == 0 && len(remove) == 0 {
		return current, nil
	}

	ref := Ref{Label: label, ID: id}
	node, matched, err := m.store.UpdateNode(ctx, ref, set, remove)
	if err != nil {
		return Node{}, err
	}
	if !matched {
		return Node{}, apperror.ErrUpdateFailed.WithMessage(fmt.Sprintf("%s could not be updated", ref))
	}
	return node, nil
}

// planUpdate turns an update request into SET and REMOVE lists.
func planUpdate(current, updates map[string]any, op Operation) (map[string]any, []string, error) {
	set := map[string]any{}
	var remove []string

	switch op {
	case OpRemove:
		for _, k := range sortedKeys(updates) {
			remove = append(remove, k)
		}
		return set, remove, nil

	case "", OpOverwrite, OpAppend:
		for _, k := range sortedKeys(updates) {
			v, err := NormalizeValue(updates[k])
			if err != nil {
				return nil, nil, apperror.NewInvalidInput(fmt.Sprintf("property %q: %s", k, errorMessage(err)))
			}
			if v == nil {
				if op != OpAppend {
					remove = append(remove, k)
				}
				continue
			}
			if op == OpAppend {
				if stored, ok := current[k].([]any); ok {
					if v, err = NormalizeValue(union(stored, v)); err != nil {
						return nil, nil, apperror.NewInvalidInput(fmt.Sprintf("property %q: %s", k, errorMessage(err)))
					}
				}
			}
			set[k] = v
		}
		return set, remove, nil
	}

	return nil, nil, apperror.NewInvalidInput(fmt.Sprintf("unknown operation %q", op))
}

// Preview returns the properties a node holding current would have after
// Update with the same updates and op. current is not modified.
func Preview(current, updates map[string]any, op Operation) (map[string]any, error) {
	set, remove, err := planUpdate(current, updates, op)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(current)+len(set))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range set {
		out[k] = v
	}
	for _, k := range remove {
		delete(out, k)
	}
	return out, nil
}

// union appends the items of add missing from base, keeping base's order.
func union(base []any, add any) []any {
	out := make([]any, len(base), len(base)+1)
	copy(out, base)

	items, ok := add.([]any)
	if !ok {
		items = []any{add}
	}
	for _, item := range items {
		if !containsValue(out, item) {
			out = append(out, item)
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// Delete detach-deletes the node. Deleting a missing node is a no-op.
func (m *Manager) Delete(ctx context.Context, label Label, id string) error {
	n, err := m.store.DeleteNode(ctx, Ref{Label: label, ID: id})
	if err != nil {
		return err
	}
	if n > 0 {
		nodesDeleted.WithLabelValues(label.Name()).Add(float64(n))
		m.log.Debug("node deleted", slog.String("label", label.Name()), slog.String("id", id))
	}
	return nil
}

// CreateRelationship merges a relType edge from start to end. Both nodes
// must exist. createdAt is stored only when the edge is new; zero means now.
func (m *Manager) CreateRelationship(ctx context.Context, start Ref, relType string, end Ref, createdAt time.Time) error {
	relType, err := ParseRelationshipType(relType)
	if err != nil {
		return err
	}
	if err := checkRef(start); err != nil {
		return err
	}
	if err := checkRef(end); err != nil {
		return err
	}

	for _, side := range []struct {
		name string
		ref  Ref
	}{{"start", start}, {"end", end}} {
		ok, err := m.Exists(ctx, side.ref.Label, "id", side.ref.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrNotFound.WithMessage(fmt.Sprintf("%s node %s not found", side.name, side.ref))
		}
	}

	if createdAt.IsZero() {
		createdAt = m.now()
	}
	props := map[string]any{"created_at": createdAt.UTC().Format(time.RFC3339)}

	matched, err := m.store.MergeRelationship(ctx, start, relType, end, props)
	if err != nil {
		return err
	}
	if !matched {
		return apperror.ErrNotFound.WithMessage(fmt.Sprintf("start node %s or end node %s not found", start, end))
	}
	relationshipsMerged.WithLabelValues(relType).Inc()
	return nil
}

// Relationships lists every outgoing edge of the node.
func (m *Manager) Relationships(ctx context.Context, ref Ref) ([]Edge, error) {
	return m.store.Outgoing(ctx, ref, "")
}

// Neighbors returns the targets of the node's outgoing relType edges.
func (m *Manager) Neighbors(ctx context.Context, ref Ref, relType string) ([]Node, error) {
	relType, err := ParseRelationshipType(relType)
	if err != nil {
		return nil, err
	}
	edges, err := m.store.Outgoing(ctx, ref, relType)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(edges))
	for _, e := range edges {
		nodes = append(nodes, e.End)
	}
	return nodes, nil
}

// Unlink deletes relType edges from start, to end only when end is set.
func (m *Manager) Unlink(ctx context.Context, start Ref, relType string, end *Ref) (int64, error) {
	relType, err := ParseRelationshipType(relType)
	if err != nil {
		return 0, err
	}
	return m.store.DeleteRelationships(ctx, start, relType, end)
}

// Stats returns node and relationship counts.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Stats(ctx)
}

// Query runs cypher verbatim. Any failure is reported as a store error
// answering 400.
func (m *Manager) Query(ctx context.Context, cypher string, params map[string]any) (*graphdb.Result, error) {
	if cypher == "" {
		return nil, apperror.NewInvalidInput("query is required")
	}
	params, err := NormalizeParams(params)
	if err != nil {
		return nil, err
	}
	res, err := m.store.Query(ctx, cypher, params)
	if err != nil {
		return nil, apperror.ErrStore.
			WithMessage("Query failed: " + rootMessage(err)).
			WithInternal(err).
			WithStatus(http.StatusBadRequest)
	}
	return res, nil
}

// rootMessage prefers the wrapped driver message over our own code prefix.
func rootMessage(err error) string {
	if appErr, ok := err.(*apperror.Error); ok && appErr.Internal != nil {
		return appErr.Internal.Error()
	}
	return errorMessage(err)
}
