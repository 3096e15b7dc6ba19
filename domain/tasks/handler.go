package tasks

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emergent-company/primary-api/domain/graph"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

// Handler handles HTTP requests for tasks
type Handler struct {
	svc *Service
}

// NewHandler creates a new tasks handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /tasks
func (h *Handler) Create(c echo.Context) error {
	props, err := graph.DecodeProps(c.Request().Body)
	if err != nil {
		return err
	}

	task, err := h.svc.Create(c.Request().Context(), props)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// List handles GET /tasks
// Filters: ?property=&value=&match=exact|contains or a single ?<prop>=<value>
func (h *Handler) List(c echo.Context) error {
	q, err := graph.ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}

	tasks, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph.NewListResponse(tasks))
}

// Get handles GET /tasks/:id
func (h *Handler) Get(c echo.Context) error {
	task, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update handles PUT /tasks/:id
func (h *Handler) Update(c echo.Context) error {
	var req graph.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}
	updates, op, err := graph.ParseUpdate(req)
	if err != nil {
		return err
	}

	task, err := h.svc.Update(c.Request().Context(), c.Param("id"), updates, op)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /tasks/:id
func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph.MessageResponse{Message: "Task deleted successfully"})
}
