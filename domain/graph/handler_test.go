package graph_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/domain/graph/graphtest"
	"github.com/emergent-company/primary-api/internal/config"
	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/internal/graphdb/graphdbtest"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

type testServer struct {
	e      *echo.Echo
	store  *graphtest.Store
	pinger *graphdbtest.Runner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := graphtest.New()
	pinger := &graphdbtest.Runner{}

	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)
	graph.RegisterRoutes(e, graph.NewHandler(graph.NewManager(store, log), pinger), graph.NewQueryRateLimiter(&config.Config{}))

	return &testServer{e: e, store: store, pinger: pinger}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "body: %s", rec.Body.String())
	return errObj["code"].(string)
}

func TestHandler_CreateRelationship(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(graph.LabelTask, map[string]any{"id": "t1"})
	s.store.Seed(graph.LabelAgent, map[string]any{"id": "bot"})

	for _, path := range []string{"/relationships", "/neo4j/relationships"} {
		rec := s.do(http.MethodPost, path, `{
			"start_node_label": "Task", "start_node_id": "t1",
			"end_node_label": "Agent", "end_node_id": "bot",
			"relationship_type": "ASSIGNED_TO"
		}`)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	assert.Equal(t, []string{"ASSIGNED_TO t1->bot"}, s.store.Edges())

	rec := s.do(http.MethodGet, "/relationships/Task/t1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"relationships": [
		{"relationship_type": "ASSIGNED_TO", "end_node_labels": ["Agent"], "end_node_id": "bot"}
	]}`, rec.Body.String())
}

func TestHandler_CreateRelationshipMissingNode(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(graph.LabelTask, map[string]any{"id": "t1"})

	rec := s.do(http.MethodPost, "/relationships", `{
		"start_node_label": "Task", "start_node_id": "t1",
		"end_node_label": "Agent", "end_node_id": "ghost",
		"relationship_type": "ASSIGNED_TO"
	}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
	assert.Empty(t, s.store.Edges())
}

func TestHandler_CreateRelationshipUnknownLabel(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/relationships", `{
		"start_node_label": "User", "start_node_id": "u1",
		"end_node_label": "Agent", "end_node_id": "bot",
		"relationship_type": "OWNS"
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", errorCode(t, rec))
}

func TestHandler_DeleteRelationship(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(graph.LabelTask, map[string]any{"id": "t1"})
	s.store.Seed(graph.LabelAgent, map[string]any{"id": "bot"})
	body := `{"start_node_label": "Task", "start_node_id": "t1", "end_node_label": "Agent", "end_node_id": "bot", "relationship_type": "ASSIGNED_TO"}`
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/relationships", body).Code)

	rec := s.do(http.MethodDelete, "/relationships", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted": 1}`, rec.Body.String())
	assert.Empty(t, s.store.Edges())
}

func TestHandler_RelationshipsEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/neo4j/relationships/Agent/nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"relationships": []}`, rec.Body.String())
}

func TestHandler_Nodes(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(graph.LabelTask, map[string]any{"id": "t1", "name": "Write report"})
	s.store.Seed(graph.LabelAgent, map[string]any{"id": "bot", "name": "Report bot"})

	rec := s.do(http.MethodGet, "/nodes?property=name&value=report&match=contains", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = s.do(http.MethodGet, "/nodes?label=agent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	rec = s.do(http.MethodGet, "/nodes/bot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"labels": ["Agent"], "properties": {"id": "bot", "name": "Report bot"}}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/nodes/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Query(t *testing.T) {
	s := newTestServer(t)
	s.store.QueryFunc = func(cypher string, params map[string]any) (*graphdb.Result, error) {
		assert.Equal(t, "MATCH (n) WHERE n.id = $id RETURN n", cypher)
		assert.Equal(t, "t1", params["id"])
		return graphdbtest.Rows([]string{"n"},
			[]any{graphdb.Node{Labels: []string{"Task"}, Props: map[string]any{"id": "t1"}}},
		), nil
	}

	rec := s.do(http.MethodPost, "/neo4j/query", `{"query": "MATCH (n) WHERE n.id = $id RETURN n", "parameters": {"id": "t1"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"result": [{"n": {"id": "t1"}}]}`, rec.Body.String())
}

func TestHandler_QueryIntegerParameters(t *testing.T) {
	s := newTestServer(t)
	var got map[string]any
	s.store.QueryFunc = func(cypher string, params map[string]any) (*graphdb.Result, error) {
		got = params
		return graphdbtest.Rows([]string{"n"}), nil
	}

	rec := s.do(http.MethodPost, "/neo4j/query",
		`{"query": "MATCH (n) RETURN n SKIP $skip LIMIT $n", "parameters": {"n": 5, "skip": 0, "ratio": 0.5, "ids": [1, 2]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, int64(5), got["n"])
	assert.Equal(t, int64(0), got["skip"])
	assert.Equal(t, 0.5, got["ratio"])
	assert.Equal(t, []any{int64(1), int64(2)}, got["ids"])
}

func TestHandler_QueryBadBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/neo4j/query", `{"query": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/neo4j/query", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode(t, rec)["error"].(map[string]any)["code"])
}

func TestHandler_QueryFailure(t *testing.T) {
	s := newTestServer(t)
	s.store.QueryFunc = func(string, map[string]any) (*graphdb.Result, error) {
		return nil, errors.New("Invalid input 'RETRUN'")
	}

	rec := s.do(http.MethodPost, "/neo4j/query", `{"query": "RETRUN 1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	errObj := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "store_error", errObj["code"])
	assert.Equal(t, "Query failed: Invalid input 'RETRUN'", errObj["message"])
}

func TestHandler_Stats(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(graph.LabelTask, map[string]any{"id": "t1"})

	rec := s.do(http.MethodGet, "/neo4j/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["node_count"])
	assert.Equal(t, float64(0), body["relationship_count"])
}

func TestHandler_StoreHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/neo4j/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())

	s.pinger.PingErr = errors.New("connection refused")
	rec = s.do(http.MethodGet, "/neo4j/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "unhealthy", "error": "connection refused"}`, rec.Body.String())
}
