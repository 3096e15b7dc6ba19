package cli

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/domain/graph/graphtest"
	"github.com/emergent-company/primary-api/domain/tasks"
	"github.com/emergent-company/primary-api/internal/config"
	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/internal/graphdb/graphdbtest"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

func newAPI(t *testing.T) (*httptest.Server, *graphtest.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := graphtest.New()
	store.QueryFunc = func(cypher string, params map[string]any) (*graphdb.Result, error) {
		if cypher == "RETURN $x AS x" {
			return graphdbtest.Rows([]string{"x"}, []any{params["x"]}), nil
		}
		return nil, errors.New("syntax error")
	}
	mgr := graph.NewManager(store, log)

	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)
	e.Pre(middleware.RemoveTrailingSlash())
	graph.RegisterRoutes(e, graph.NewHandler(mgr, &graphdbtest.Runner{}), graph.NewQueryRateLimiter(&config.Config{}))
	tasks.RegisterRoutes(e, tasks.NewHandler(tasks.NewService(mgr, log)))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, store
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_Health(t *testing.T) {
	srv, _ := newAPI(t)

	out, err := run(t, srv.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "healthy\n", out)
}

func TestCLI_StatsTable(t *testing.T) {
	srv, store := newAPI(t)
	store.Seed(graph.LabelTask, map[string]any{"id": "t1", "name": "T"})
	store.Seed(graph.LabelAgent, map[string]any{"id": "bot", "name": "Bot"})

	out, err := run(t, srv.URL, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Task")
	assert.Contains(t, out, "Agent")

	out, err = run(t, srv.URL, "stats", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"node_count": 2`)
}

func TestCLI_Query(t *testing.T) {
	srv, _ := newAPI(t)

	out, err := run(t, srv.URL, "query", "RETURN $x AS x", "--param", "x=42")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"x": 42}]`, out)

	_, err = run(t, srv.URL, "query", "NOT CYPHER")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "store_error", apiErr.Code)

	_, err = run(t, srv.URL, "query", "RETURN 1", "--param", "novalue")
	assert.Error(t, err)
}

func TestCLI_GetAndList(t *testing.T) {
	srv, store := newAPI(t)
	store.Seed(graph.LabelTask, map[string]any{"id": "write_docs", "name": "Write docs", "status": "UNASSIGNED"})
	store.Seed(graph.LabelTask, map[string]any{"id": "fix_bug", "name": "Fix bug", "status": "UNASSIGNED"})

	out, err := run(t, srv.URL, "get", "tasks", "fix_bug")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Fix bug"`)

	_, err = run(t, srv.URL, "get", "tasks", "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	out, err = run(t, srv.URL, "list", "tasks", "--property", "name", "--value", "docs", "--contains", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "write_docs")
	assert.NotContains(t, out, "fix_bug")

	_, err = run(t, srv.URL, "list", "widgets")
	assert.Error(t, err)
}

func TestCLI_RelateAndRelationships(t *testing.T) {
	srv, store := newAPI(t)
	store.Seed(graph.LabelAgent, map[string]any{"id": "bot", "name": "Bot"})
	store.Seed(graph.LabelCapability, map[string]any{"id": "coding", "name": "Coding"})

	out, err := run(t, srv.URL, "relate", "Agent", "bot", "can_execute", "Capability", "coding")
	require.NoError(t, err)
	assert.Equal(t, "Agent 'bot' -[CAN_EXECUTE]-> Capability 'coding'\n", out)

	out, err = run(t, srv.URL, "relationships", "Agent", "bot", "--output", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"relationship_type":"CAN_EXECUTE","end_node_labels":["Capability"],"end_node_id":"coding"}]`, out)

	_, err = run(t, srv.URL, "relate", "Agent", "ghost", "USES", "Capability", "coding")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"n=3", "flag=true", "name=bot", "list=[1,2]", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":    float64(3),
		"flag": true,
		"name": "bot",
		"list": []any{float64(1), float64(2)},
		"eq":   "a=b",
	}, params)
}

func TestCLI_ServerFromEnv(t *testing.T) {
	srv, _ := newAPI(t)
	t.Setenv("PRIMARY_SERVER", srv.URL)

	cmd := NewRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"health"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "healthy\n", out.String())
}

func TestCLI_JQAndYAML(t *testing.T) {
	srv, store := newAPI(t)
	store.Seed(graph.LabelTask, map[string]any{"id": "t1", "name": "First", "status": "UNASSIGNED"})
	store.Seed(graph.LabelTask, map[string]any{"id": "t2", "name": "Second", "status": "UNASSIGNED"})

	out, err := run(t, srv.URL, "list", "tasks", "--jq", ".[].id")
	require.NoError(t, err)
	assert.Equal(t, "\"t1\"\n\"t2\"\n", out)

	out, err = run(t, srv.URL, "get", "tasks", "t1", "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: First\n")

	_, err = run(t, srv.URL, "get", "tasks", "t1", "--jq", ".[")
	assert.Error(t, err)
}
