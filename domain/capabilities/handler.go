package capabilities

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

// Handler handles HTTP requests for capabilities
type Handler struct {
	svc *Service
}

// NewHandler creates a new capabilities handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /capabilities
func (h *Handler) Create(c echo.Context) error {
	props, err := graph.DecodeProps(c.Request().Body)
	if err != nil {
		return err
	}

	capability, err := h.svc.Create(c.Request().Context(), props)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, capability)
}

// List handles GET /capabilities
// Filters: ?property=&value=&match=exact|contains or a single ?<prop>=<value>
func (h *Handler) List(c echo.Context) error {
	q, err := graph.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}

	caps, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph.NewListResponse(caps))
}

// Get handles GET /capabilities/:id
func (h *Handler) Get(c echo.Context) error {
	capability, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, capability)
}

// Update handles PUT /capabilities/:id
func (h *Handler) Update(c echo.Context) error {
	var req graph.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}
	updates, op, err := graph.ParseUpdate(req)
	if err != nil {
		return err
	}

	capability, err := h.svc.Update(c.Request().Context(), c.Param("id"), updates, op)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, capability)
}

// Delete handles DELETE /capabilities/:id
func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph.MessageResponse{Message: "Capability deleted successfully"})
}
