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

// ClientHandler exposes the client book over HTTP.
type ClientHandler struct {
	Clients *repository.ClientRepo
}

func NewClientHandler(r *repository.ClientRepo) *ClientHandler {
	if r == nil {
		panic("handler: nil client repo")
	}
	return &ClientHandler{Clients: r}
}

type clientReq struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

// Create adds a client.  Name is required; phone and notes are optional
// but validated when present.
func (h *ClientHandler) Create(c echo.Context) error {
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	name := strings.TrimSpace(*req.Name)
	if res := validate.ClientName(name); !res.OK() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
	}
	var phone, notes string
	if req.Phone != nil {
		phone = strings.TrimSpace(*req.Phone)
		if res := validate.Phone(phone); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
	}
	if req.Notes != nil {
		notes = *req.Notes
		if res := validate.Notes(notes); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl := model.Client{Name: name, Phone: phone, Notes: notes}
	if err := h.Clients.Create(ctx, &cl); err != nil {
		if err == repository.ErrDuplicateClient {
			return c.JSON(http.StatusConflict, echo.Map{"error": "client already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create client failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": cl})
}

// List returns all clients ordered by name.  With ?q= the directory is
// filtered to clients whose name or phone contains the query.
func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		items []model.Client
		err   error
	)
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		items, err = h.Clients.Search(ctx, q)
	} else {
		items, err = h.Clients.List(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one client by id.
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": cl})
}

// Update patches whichever fields were supplied.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Phone == nil && req.Notes == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if res := validate.ClientName(trimmed); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
		req.Name = &trimmed
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		if res := validate.Phone(trimmed); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
		req.Phone = &trimmed
	}
	if req.Notes != nil {
		if res := validate.Notes(*req.Notes); !res.OK() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": res.Reason})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Clients.Update(ctx, id, req.Name, req.Phone, req.Notes); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": cl})
}

// NoShow bumps the client's no-show counter.
func (h *ClientHandler) NoShow(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Clients.IncrementNoShow(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	cl, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "no_show_count": cl.NoShowCount})
}

// Delete removes a client.  Clients with appointments on file cannot be
// removed; the database FK surfaces as a 409.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Clients.Delete(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "client has appointments on file"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
