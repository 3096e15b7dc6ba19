package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/emergent-company/primary-api/domain/graph"
)

// DefaultServer is used when neither --server nor PRIMARY_SERVER is set
const DefaultServer = "http://localhost:8100"

// Client talks to the Primary API over HTTP
type Client struct {
	http *resty.Client
}

// APIError is a non-2xx response decoded from {"error": {"code", "message"}}
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, query map[string]string) error {
	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok {
			apiErr.Code = eb.Error.Code
			apiErr.Message = eb.Error.Message
		}
		return apiErr
	}
	return nil
}

// StoreHealth calls GET /neo4j/health
func (c *Client) StoreHealth(ctx context.Context) (*graph.StoreHealthResponse, error) {
	var out graph.StoreHealthResponse
	if err := c.do(ctx, resty.MethodGet, "/neo4j/health", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats calls GET /neo4j/stats
func (c *Client) Stats(ctx context.Context) (*graph.Stats, error) {
	var out graph.Stats
	if err := c.do(ctx, resty.MethodGet, "/neo4j/stats", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query runs a raw Cypher statement through POST /neo4j/query
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	var out graph.QueryResponse
	req := graph.QueryRequest{Query: cypher, Parameters: params}
	if err := c.do(ctx, resty.MethodPost, "/neo4j/query", req, &out, nil); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Get fetches one entity of a resource (tasks, agents, capabilities, nodes)
func (c *Client) Get(ctx context.Context, resource, id string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, resty.MethodGet, "/"+resource+"/"+id, nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// List fetches a resource collection, optionally filtered
func (c *Client) List(ctx context.Context, resource string, filter map[string]string) ([]map[string]any, error) {
	var out graph.ListResponse[map[string]any]
	if err := c.do(ctx, resty.MethodGet, "/"+resource, nil, &out, filter); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Relate calls POST /relationships
func (c *Client) Relate(ctx context.Context, req graph.RelationshipRequest) error {
	return c.do(ctx, resty.MethodPost, "/relationships", req, nil, nil)
}

// Relationships lists the outgoing edges of a node
func (c *Client) Relationships(ctx context.Context, label, id string) ([]graph.Edge, error) {
	var out graph.RelationshipsResponse
	if err := c.do(ctx, resty.MethodGet, "/relationships/"+label+"/"+id, nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Relationships, nil
}
