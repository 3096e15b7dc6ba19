// Package graphtest provides an in-memory graph.Store for tests.
package graphtest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

type node struct {
	labels []string
	props  map[string]any
}

type edge struct {
	relType  string
	from, to *node
	props    map[string]any
}

// Store keeps nodes and edges in memory with the same semantics as the
// Cypher-backed store.
type Store struct {
	mu    sync.Mutex
	nodes []*node
	edges []*edge

	// Err, when set, fails every call with a store error wrapping it
	Err error
	// QueryFunc answers raw queries; nil fails them
	QueryFunc func(cypher string, params map[string]any) (*graphdb.Result, error)
}

var _ graph.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) fail() error {
	if s.Err != nil {
		return apperror.ErrStore.WithInternal(s.Err)
	}
	return nil
}

func (s *Store) CreateNode(_ context.Context, label graph.Label, props map[string]any) (graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return graph.Node{}, err
	}

	n := &node{labels: []string{string(label)}, props: copyProps(props)}
	s.nodes = append(s.nodes, n)
	return n.snapshot(), nil
}

func (s *Store) FindNodes(_ context.Context, q graph.NodeQuery) ([]graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}

	var out []graph.Node
	for _, n := range s.nodes {
		if n.matches(q) {
			out = append(out, n.snapshot())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *Store) CountNodes(_ context.Context, q graph.NodeQuery) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	var count int64
	for _, n := range s.nodes {
		if n.matches(q) {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateNode(_ context.Context, ref graph.Ref, set map[string]any, remove []string) (graph.Node, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return graph.Node{}, false, err
	}

	n := s.find(ref)
	if n == nil {
		return graph.Node{}, false, nil
	}
	for k, v := range set {
		n.props[k] = copyValue(v)
	}
	for _, k := range remove {
		delete(n.props, k)
	}
	return n.snapshot(), true, nil
}

func (s *Store) DeleteNode(_ context.Context, ref graph.Ref) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	var deleted int64
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if n.is(ref) {
			deleted++
			s.detach(n)
			continue
		}
		kept = append(kept, n)
	}
	s.nodes = kept
	return deleted, nil
}

func (s *Store) MergeRelationship(_ context.Context, start graph.Ref, relType string, end graph.Ref, props map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return false, err
	}

	from, to := s.find(start), s.find(end)
	if from == nil || to == nil {
		return false, nil
	}
	s.merge(from, relType, to, props)
	return true, nil
}

func (s *Store) MergeLinkedNode(_ context.Context, start graph.Ref, relType string, target graph.Ref, onCreate map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return false, err
	}

	from := s.find(start)
	if from == nil {
		return false, nil
	}
	to := s.find(target)
	if to == nil {
		props := copyProps(onCreate)
		props["id"] = target.ID
		to = &node{labels: []string{string(target.Label)}, props: props}
		s.nodes = append(s.nodes, to)
	}
	s.merge(from, relType, to, nil)
	return true, nil
}

func (s *Store) DeleteRelationships(_ context.Context, start graph.Ref, relType string, end *graph.Ref) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}

	var deleted int64
	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.relType == relType && e.from.is(start) && (end == nil || e.to.is(*end)) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	return deleted, nil
}

func (s *Store) Outgoing(_ context.Context, ref graph.Ref, relType string) ([]graph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}

	var out []graph.Edge
	for _, e := range s.edges {
		if !e.from.is(ref) || (relType != "" && e.relType != relType) {
			continue
		}
		end := e.to.snapshot()
		out = append(out, graph.Edge{
			Type:      e.relType,
			EndLabels: end.Labels,
			EndID:     end.ID(),
			End:       end,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].EndID < out[j].EndID
	})
	return out, nil
}

func (s *Store) Stats(context.Context) (graph.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return graph.Stats{}, err
	}

	stats := graph.Stats{
		NodeCount:         int64(len(s.nodes)),
		RelationshipCount: int64(len(s.edges)),
		Labels:            map[string]int64{},
		RelationshipTypes: map[string]int64{},
	}
	for _, n := range s.nodes {
		for _, l := range n.labels {
			stats.Labels[l]++
		}
	}
	for _, e := range s.edges {
		stats.RelationshipTypes[e.relType]++
	}
	return stats, nil
}

func (s *Store) Query(_ context.Context, cypher string, params map[string]any) (*graphdb.Result, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	if s.QueryFunc == nil {
		return nil, apperror.ErrStore.WithInternal(fmt.Errorf("raw queries are not supported in memory"))
	}
	res, err := s.QueryFunc(cypher, params)
	if err != nil {
		return nil, apperror.ErrStore.WithInternal(err)
	}
	return res, nil
}

// Edges returns "TYPE from->to" for every edge, sorted.
func (s *Store) Edges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, fmt.Sprintf("%s %v->%v", e.relType, e.from.props["id"], e.to.props["id"]))
	}
	sort.Strings(out)
	return out
}

// Seed inserts a node directly, bypassing every check.
func (s *Store) Seed(label graph.Label, props map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, &node{labels: []string{string(label)}, props: copyProps(props)})
}

func (s *Store) find(ref graph.Ref) *node {
	for _, n := range s.nodes {
		if n.is(ref) {
			return n
		}
	}
	return nil
}

func (s *Store) merge(from *node, relType string, to *node, props map[string]any) {
	for _, e := range s.edges {
		if e.from == from && e.to == to && e.relType == relType {
			return
		}
	}
	s.edges = append(s.edges, &edge{relType: relType, from: from, to: to, props: copyProps(props)})
}

func (s *Store) detach(n *node) {
	kept := s.edges[:0]
	for _, e := range s.edges {
		if e.from != n && e.to != n {
			kept = append(kept, e)
		}
	}
	s.edges = kept
}

func (n *node) hasLabel(l graph.Label) bool {
	if l == "" {
		return true
	}
	for _, have := range n.labels {
		if have == string(l) {
			return true
		}
	}
	return false
}

func (n *node) is(ref graph.Ref) bool {
	return n.hasLabel(ref.Label) && n.props["id"] == ref.ID
}

func (n *node) matches(q graph.NodeQuery) bool {
	if !n.hasLabel(q.Label) {
		return false
	}
	if q.Property == "" {
		return true
	}
	v, ok := n.props[q.Property]
	if !ok {
		return false
	}
	if q.Match == graph.MatchContains {
		s, ok := v.(string)
		return ok && strings.Contains(s, fmt.Sprint(q.Value))
	}
	want, err := graph.NormalizeValue(q.Value)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(v, want)
}

func (n *node) snapshot() graph.Node {
	labels := make([]string, len(n.labels))
	copy(labels, n.labels)
	return graph.Node{Labels: labels, Props: copyProps(n.props)}
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		copy(out, list)
		return out
	}
	return v
}
