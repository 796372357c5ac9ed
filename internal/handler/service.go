package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chairmanhq/chairman-server/internal/model"
	"github.com/chairmanhq/chairman-server/internal/repository"
	"github.com/chairmanhq/chairman-server/internal/validate"
)

// ServiceHandler manages the service catalog.  Durations here decide
// appointment end times, so every write runs through validation.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(r *repository.ServiceRepo) *ServiceHandler {
	if r == nil {
		panic("handler: nil service repo")
	}
	return &ServiceHandler{Services: r}
}

type serviceReq struct {
	Name            *string  `json:"name"`
	Price           *float64 `json:"price"`
	DurationMinutes *uint32  `json:"duration_minutes"`
	BufferMinutes   *uint32  `json:"buffer_minutes"`
}

// Create adds a catalog entry.  Name, price and duration are required;
// buffer defaults to zero.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil || req.Price == nil || req.DurationMinutes == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, price and duration_minutes required"})
	}
	name := strings.TrimSpace(*req.Name)
	if res := validate.ServiceName(name); !res.OK() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
	}
	if res := validate.Price(*req.Price); !res.OK() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
	}
	if res := validate.Duration(*req.DurationMinutes); !res.OK() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
	}
	var buffer uint32
	if req.BufferMinutes != nil {
		if res := validate.Buffer(*req.BufferMinutes); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
		buffer = *req.BufferMinutes
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	svc := model.Service{Name: name, Price: *req.Price, DurationMinutes: *req.DurationMinutes, BufferMinutes: buffer}
	if err := h.Services.Create(ctx, &svc); err != nil {
		if err == repository.ErrDuplicateService {
			return c.JSON(http.StatusConflict, echo.Map{"error": "service already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create service failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": svc})
}

// List returns the full catalog.
func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Services.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one service by id.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	svc, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": svc})
}

// Update patches whichever fields were supplied.  Existing appointments
// keep the end times they were booked with.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Price == nil && req.DurationMinutes == nil && req.BufferMinutes == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if res := validate.ServiceName(trimmed); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
		req.Name = &trimmed
	}
	if req.Price != nil {
		if res := validate.Price(*req.Price); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
	}
	if req.DurationMinutes != nil {
		if res := validate.Duration(*req.DurationMinutes); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
	}
	if req.BufferMinutes != nil {
		if res := validate.Buffer(*req.BufferMinutes); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Update(ctx, id, req.Name, req.Price, req.DurationMinutes, req.BufferMinutes); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		case repository.ErrDuplicateService:
			return c.JSON(http.StatusConflict, echo.Map{"error": "service already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	svc, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": svc})
}

// Delete removes a catalog entry unless appointments still reference it.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Delete(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "service is used by appointments"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
