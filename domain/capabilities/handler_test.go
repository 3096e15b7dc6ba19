package capabilities

import (
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
	"github.com/emergent-company/primary-api/pkg/apperror"
)

func TestHandler_CapabilityRoutes(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)
	RegisterRoutes(e, NewHandler(NewService(graph.NewManager(graphtest.New(), log), log)))

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{"create", http.MethodPost, "/capabilities", `{"name": "Coding", "valid_relationships": ["uses"]}`, http.StatusCreated,
			`{"id":"coding","name":"Coding","valid_relationships":["USES"]}`},
		{"create bad type", http.MethodPost, "/capabilities", `{"name": "X", "valid_relationships": ["1bad"]}`, http.StatusBadRequest, ""},
		{"create without name", http.MethodPost, "/capabilities", `{"valid_relationships": []}`, http.StatusBadRequest, ""},
		{"list", http.MethodGet, "/capabilities", "", http.StatusOK,
			`{"data":[{"id":"coding","name":"Coding","valid_relationships":["USES"]}],"total":1}`},
		{"remove key", http.MethodPut, "/capabilities/coding", `{"updates": {"valid_relationships": null}, "operation": "remove"}`, http.StatusOK,
			`{"id":"coding","name":"Coding","valid_relationships":[]}`},
		{"bad operation", http.MethodPut, "/capabilities/coding", `{"updates": {"name": "x"}, "operation": "merge"}`, http.StatusBadRequest, ""},
		{"delete", http.MethodDelete, "/capabilities/coding", "", http.StatusOK, `{"message":"Capability deleted successfully"}`},
		{"get deleted", http.MethodGet, "/capabilities/coding", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
