package tasks

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/domain/graph/graphtest"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

func newTestEcho(t *testing.T) (*echo.Echo, *graphtest.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := graphtest.New()

	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)
	e.Pre(middleware.RemoveTrailingSlash())
	RegisterRoutes(e, NewHandler(NewService(graph.NewManager(store, log), log)))
	return e, store
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CRUD(t *testing.T) {
	e, store := newTestEcho(t)
	store.Seed(graph.LabelAgent, map[string]any{"id": "bot", "name": "Bot"})

	rec := serve(e, http.MethodPost, "/tasks/", `{"name": "Write report", "priority": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id": "write_report", "name": "Write report", "status": "UNASSIGNED", "priority": 2}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/tasks/write_report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": "write_report", "name": "Write report", "status": "UNASSIGNED", "priority": 2}`, rec.Body.String())

	rec = serve(e, http.MethodPut, "/tasks/write_report", `{"updates": {"assignee": "bot"}, "operation": "overwrite"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "ASSIGNED", updated["status"])

	rec = serve(e, http.MethodGet, "/tasks?status=ASSIGNED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = serve(e, http.MethodDelete, "/tasks/write_report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Task deleted successfully"}`, rec.Body.String())

	rec = serve(e, http.MethodDelete, "/tasks/write_report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	e, _ := newTestEcho(t)
	require.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/tasks", `{"id": "t1", "name": "T"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"duplicate", http.MethodPost, "/tasks", `{"id": "t1", "name": "T"}`, http.StatusBadRequest, "already_exists"},
		{"status without assignee", http.MethodPost, "/tasks", `{"name": "X", "status": "COMPLETED"}`, http.StatusBadRequest, "validation_error"},
		{"not an object", http.MethodPost, "/tasks", `["x"]`, http.StatusBadRequest, "bad_request"},
		{"get missing", http.MethodGet, "/tasks/nope", "", http.StatusNotFound, "not_found"},
		{"update missing", http.MethodPut, "/tasks/nope", `{"updates": {"name": "x"}}`, http.StatusNotFound, "not_found"},
		{"bad operation", http.MethodPut, "/tasks/t1", `{"updates": {"name": "x"}, "operation": "merge"}`, http.StatusBadRequest, "invalid_input"},
		{"update id", http.MethodPut, "/tasks/t1", `{"updates": {"id": "t2"}}`, http.StatusBadRequest, "invalid_input"},
		{"two filters", http.MethodGet, "/tasks?a=1&b=2", "", http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body map[string]map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"]["code"])
		})
	}
}
