package graph

import "time"

// UpdateRequest is the body of PUT /{resource}/:id
type UpdateRequest struct {
	Updates   map[string]any `json:"updates"`
	Operation string         `json:"operation"`
}

// RelationshipRequest is the body of POST and DELETE /relationships
type RelationshipRequest struct {
	StartNodeLabel   string     `json:"start_node_label"`
	StartNodeID      string     `json:"start_node_id"`
	EndNodeLabel     string     `json:"end_node_label"`
	EndNodeID        string     `json:"end_node_id"`
	RelationshipType string     `json:"relationship_type"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// RelationshipsResponse lists a node's outgoing edges
type RelationshipsResponse struct {
	Relationships []Edge `json:"relationships"`
}

// QueryRequest is the body of POST /neo4j/query
type QueryRequest struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters"`
}

// QueryResponse holds the rows of a raw query
type QueryResponse struct {
	Result []map[string]any `json:"result"`
}

// ListResponse wraps a list endpoint's items
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// NewListResponse never returns a null data array
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// UnlinkResponse reports how many edges were removed
type UnlinkResponse struct {
	Deleted int64 `json:"deleted"`
}

// StoreHealthResponse is the body of GET /neo4j/health
type StoreHealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
