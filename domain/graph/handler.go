package graph

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emergent-company/primary-api/internal/graphdb"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

// Handler serves the label-agnostic graph endpoints
type Handler struct {
	mgr    *Manager
	pinger graphdb.Pinger
}

// NewHandler creates a new graph handler
func NewHandler(mgr *Manager, pinger graphdb.Pinger) *Handler {
	return &Handler{mgr: mgr, pinger: pinger}
}

func (r RelationshipRequest) refs() (Ref, Ref, error) {
	startLabel, err := ParseLabel(r.StartNodeLabel)
	if err != nil {
		return Ref{}, Ref{}, err
	}
	endLabel, err := ParseLabel(r.EndNodeLabel)
	if err != nil {
		return Ref{}, Ref{}, err
	}
	return Ref{Label: startLabel, ID: r.StartNodeID}, Ref{Label: endLabel, ID: r.EndNodeID}, nil
}

// CreateRelationship handles POST /relationships
func (h *Handler) CreateRelationship(c echo.Context) error {
	var req RelationshipRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	start, end, err := req.refs()
	if err != nil {
		return err
	}
	var createdAt time.Time
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}

	if err := h.mgr.CreateRelationship(c.Request().Context(), start, req.RelationshipType, end, createdAt); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Relationship created successfully"})
}

// DeleteRelationship handles DELETE /relationships
func (h *Handler) DeleteRelationship(c echo.Context) error {
	var req RelationshipRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	start, end, err := req.refs()
	if err != nil {
		return err
	}

	n, err := h.mgr.Unlink(c.Request().Context(), start, req.RelationshipType, &end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UnlinkResponse{Deleted: n})
}

// Relationships handles GET /relationships/:label/:id
func (h *Handler) Relationships(c echo.Context) error {
	label, err := ParseLabel(c.Param("label"))
	if err != nil {
		return err
	}

	edges, err := h.mgr.Relationships(c.Request().Context(), Ref{Label: label, ID: c.Param("id")})
	if err != nil {
		return err
	}
	if edges == nil {
		edges = []Edge{}
	}
	return c.JSON(http.StatusOK, RelationshipsResponse{Relationships: edges})
}

// ListNodes handles GET /nodes
// Optional ?label= narrows the search to one label.
func (h *Handler) ListNodes(c echo.Context) error {
	label, err := ParseOptionalLabel(c.QueryParam("label"))
	if err != nil {
		return err
	}
	q, err := ParseFilter(c.QueryParams(), "label")
	if err != nil {
		return err
	}
	q.Label = label

	nodes, err := h.mgr.Search(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewListResponse(nodes))
}

// GetNode handles GET /nodes/:id
func (h *Handler) GetNode(c echo.Context) error {
	label, err := ParseOptionalLabel(c.QueryParam("label"))
	if err != nil {
		return err
	}

	node, err := h.mgr.Get(c.Request().Context(), label, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

// Query handles POST /neo4j/query
// The statement runs verbatim; there is no filtering of what it may do.
func (h *Handler) Query(c echo.Context) error {
	req, err := DecodeQuery(c.Request().Body)
	if err != nil {
		return err
	}

	res, err := h.mgr.Query(c.Request().Context(), req.Query, req.Parameters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, QueryResponse{Result: res.Data()})
}

// Stats handles GET /neo4j/stats
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.mgr.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// StoreHealth handles GET /neo4j/health
// Always answers 200; a failed probe is reported in the body.
func (h *Handler) StoreHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		return c.JSON(http.StatusOK, StoreHealthResponse{Status: "unhealthy", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, StoreHealthResponse{Status: "healthy"})
}
