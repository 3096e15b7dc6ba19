package graph

import (
	"context"
	"log/slog"

	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/pkg/apperror"
	"github.com/emergent-company/primary-api/pkg/logger"
)

// Store is the graph persistence boundary used by Manager. Every method runs
// a single statement; nothing spans more than one.
type Store interface {
	CreateNode(ctx context.Context, label Label, props map[string]any) (Node, error)
	FindNodes(ctx context.Context, q NodeQuery) ([]Node, error)
	CountNodes(ctx context.Context, q NodeQuery) (int64, error)
	// UpdateNode reports false when no node matched ref.
	UpdateNode(ctx context.Context, ref Ref, set map[string]any, remove []string) (Node, bool, error)
	DeleteNode(ctx context.Context, ref Ref) (int64, error)
	// MergeRelationship reports false when either endpoint is missing.
	MergeRelationship(ctx context.Context, start Ref, relType string, end Ref, props map[string]any) (bool, error)
	// MergeLinkedNode merges target (creating it with onCreate) and an edge to it.
	// It reports false when start is missing.
	MergeLinkedNode(ctx context.Context, start Ref, relType string, target Ref, onCreate map[string]any) (bool, error)
	// DeleteRelationships removes relType edges from start, optionally only those to end.
	DeleteRelationships(ctx context.Context, start Ref, relType string, end *Ref) (int64, error)
	// Outgoing lists edges leaving ref; an empty relType means any type.
	Outgoing(ctx context.Context, ref Ref, relType string) ([]Edge, error)
	Stats(ctx context.Context) (Stats, error)
	// Query runs cypher verbatim.
	Query(ctx context.Context, cypher string, params map[string]any) (*graphdb.Result, error)
}

// CypherStore implements Store on a graphdb.Runner.
type CypherStore struct {
	db  graphdb.Runner
	log *slog.Logger
}

// NewStore creates the Cypher-backed store
func NewStore(db graphdb.Runner, log *slog.Logger) Store {
	return &CypherStore{
		db:  db,
		log: log.With(logger.Scope("graph.store")),
	}
}

func (s *CypherStore) run(ctx context.Context, op string, st graphdb.Statement, stErr error) (*graphdb.Result, error) {
	if stErr != nil {
		return nil, stErr
	}
	res, err := s.db.Run(ctx, st)
	if err != nil {
		s.log.Error("graph statement failed",
			slog.String("op", op),
			logger.Error(err),
		)
		return nil, apperror.ErrStore.WithInternal(err)
	}
	return res, nil
}

func (s *CypherStore) CreateNode(ctx context.Context, label Label, props map[string]any) (Node, error) {
	st, err := createNodeStatement(label, props)
	res, err := s.run(ctx, "create_node", st, err)
	if err != nil {
		return Node{}, err
	}
	nodes := nodesFrom(res, "n")
	if len(nodes) == 0 {
		return Node{}, apperror.NewStore("create returned no node", nil)
	}
	return nodes[0], nil
}

func (s *CypherStore) FindNodes(ctx context.Context, q NodeQuery) ([]Node, error) {
	st, err := findNodesStatement(q)
	res, err := s.run(ctx, "find_nodes", st, err)
	if err != nil {
		return nil, err
	}
	return nodesFrom(res, "n"), nil
}

func (s *CypherStore) CountNodes(ctx context.Context, q NodeQuery) (int64, error) {
	st, err := countNodesStatement(q)
	res, err := s.run(ctx, "count_nodes", st, err)
	if err != nil {
		return 0, err
	}
	return intColumn(res, "count"), nil
}

func (s *CypherStore) UpdateNode(ctx context.Context, ref Ref, set map[string]any, remove []string) (Node, bool, error) {
	st, err := updateNodeStatement(ref, set, remove)
	res, err := s.run(ctx, "update_node", st, err)
	if err != nil {
		return Node{}, false, err
	}
	nodes := nodesFrom(res, "n")
	if len(nodes) == 0 {
		return Node{}, false, nil
	}
	return nodes[0], true, nil
}

func (s *CypherStore) DeleteNode(ctx context.Context, ref Ref) (int64, error) {
	st, err := deleteNodeStatement(ref)
	res, err := s.run(ctx, "delete_node", st, err)
	if err != nil {
		return 0, err
	}
	return intColumn(res, "deleted"), nil
}

func (s *CypherStore) MergeRelationship(ctx context.Context, start Ref, relType string, end Ref, props map[string]any) (bool, error) {
	st, err := mergeRelationshipStatement(start, relType, end, props)
	res, err := s.run(ctx, "merge_relationship", st, err)
	if err != nil {
		return false, err
	}
	return len(res.Records) > 0, nil
}

func (s *CypherStore) MergeLinkedNode(ctx context.Context, start Ref, relType string, target Ref, onCreate map[string]any) (bool, error) {
	st, err := mergeLinkedNodeStatement(start, relType, target, onCreate)
	res, err := s.run(ctx, "merge_linked_node", st, err)
	if err != nil {
		return false, err
	}
	return len(res.Records) > 0, nil
}

func (s *CypherStore) DeleteRelationships(ctx context.Context, start Ref, relType string, end *Ref) (int64, error) {
	st, err := deleteRelationshipsStatement(start, relType, end)
	res, err := s.run(ctx, "delete_relationships", st, err)
	if err != nil {
		return 0, err
	}
	return intColumn(res, "deleted"), nil
}

func (s *CypherStore) Outgoing(ctx context.Context, ref Ref, relType string) ([]Edge, error) {
	st, err := outgoingStatement(ref, relType)
	res, err := s.run(ctx, "outgoing", st, err)
	if err != nil {
		return nil, err
	}

	edges := make([]Edge, 0, len(res.Records))
	for _, rec := range res.Records {
		e := Edge{EndLabels: rec.Strings("end_node_labels")}
		e.Type, _ = rec.String("relationship_type")
		e.EndID, _ = rec.String("end_node_id")
		if m, ok := rec.Node("m"); ok {
			e.End = Node{Labels: m.Labels, Props: m.Props}
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func (s *CypherStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Labels: map[string]int64{}, RelationshipTypes: map[string]int64{}}

	res, err := s.run(ctx, "stats", nodeCountStatement, nil)
	if err != nil {
		return Stats{}, err
	}
	stats.NodeCount = intColumn(res, "count")

	res, err = s.run(ctx, "stats", labelCountStatement, nil)
	if err != nil {
		return Stats{}, err
	}
	for _, rec := range res.Records {
		label, _ := rec.String("label")
		n, _ := rec.Int("count")
		stats.Labels[label] = n
	}

	res, err = s.run(ctx, "stats", relTypeCountStatement, nil)
	if err != nil {
		return Stats{}, err
	}
	for _, rec := range res.Records {
		t, _ := rec.String("type")
		n, _ := rec.Int("count")
		stats.RelationshipTypes[t] = n
		stats.RelationshipCount += n
	}

	return stats, nil
}

func (s *CypherStore) Query(ctx context.Context, cypher string, params map[string]any) (*graphdb.Result, error) {
	if params == nil {
		params = map[string]any{}
	}
	return s.run(ctx, "raw_query", graphdb.Statement{Cypher: cypher, Params: params, Write: true}, nil)
}

func nodesFrom(res *graphdb.Result, key string) []Node {
	nodes := make([]Node, 0, len(res.Records))
	for _, rec := range res.Records {
		if n, ok := rec.Node(key); ok {
			nodes = append(nodes, Node{Labels: n.Labels, Props: n.Props})
		}
	}
	return nodes
}

func intColumn(res *graphdb.Result, key string) int64 {
	rec, ok := res.Single()
	if !ok {
		return 0
	}
	n, _ := rec.Int(key)
	return n
}
