package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chairmanhq/chairman-server/internal/queue"
	"github.com/chairmanhq/chairman-server/internal/repository"
	"github.com/chairmanhq/chairman-server/internal/scheduler"
	queue_publisher "github.com/chairmanhq/chairman-server/internal/service"
)

// AppointmentHandler exposes the scheduler over HTTP.  All scheduling
// decisions live in the scheduler; the handler only translates between
// JSON and the scheduler's error kinds; conflict, not-found and
// validation failures each map to their own status so the UI can react
// differently to each.
type AppointmentHandler struct {
	Sched *scheduler.Scheduler
}

// NewAppointmentHandler constructs an AppointmentHandler.  The
// scheduler must be non-nil.
func NewAppointmentHandler(sched *scheduler.Scheduler) *AppointmentHandler {
	if sched == nil {
		panic("nil scheduler passed to NewAppointmentHandler")
	}
	return &AppointmentHandler{Sched: sched}
}

type bookReq struct {
	ClientID      uint64    `json:"client_id"`
	ServiceID     uint64    `json:"service_id"`
	StartTime     time.Time `json:"start_time"`
	Paid          bool      `json:"paid"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes"`
}

// Book handles POST /v1/appointments.  On success it returns 201 with
// the stored appointment's denormalized view, so the caller immediately
// sees the computed end time.  A slot conflict returns 409 along with
// the bounds of the window that was requested.
func (h *AppointmentHandler) Book(c echo.Context) error {
	var body bookReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ClientID == 0 || body.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id and service_id are required"})
	}
	if body.StartTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time is required"})
	}

	ctx := c.Request().Context()
	id, err := h.Sched.Book(ctx, scheduler.BookingRequest{
		ClientID:      body.ClientID,
		ServiceID:     body.ServiceID,
		Start:         body.StartTime,
		Paid:          body.Paid,
		PaymentMethod: body.PaymentMethod,
		Notes:         body.Notes,
	})
	if err != nil {
		var ve *scheduler.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason})
		}
		if errors.Is(err, scheduler.ErrServiceNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "service does not exist"})
		}
		var ce *scheduler.ConflictError
		if errors.As(err, &ce) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":          ce.Error(),
				"conflict_start": ce.Start.Format(time.RFC3339),
				"conflict_end":   ce.End.Format(time.RFC3339),
			})
		}
		c.Logger().Errorf("book appointment: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to book appointment"})
	}

	view, err := h.Sched.Get(ctx, id)
	if err != nil || view == nil {
		// Booked but the read-back failed; the id alone still lets the
		// client proceed.
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}

	go publishBooked(view)

	return c.JSON(http.StatusCreated, echo.Map{"item": view})
}

// publishBooked emits the appointment.booked event.  Failures are
// logged inside the publisher and intentionally dropped; the booking
// already committed.
func publishBooked(v *repository.AppointmentView) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = queue_publisher.PublishAppointmentBooked(ctx, queue.AppointmentBookedEvent{
		EventID:       uuid.NewString(),
		AppointmentID: v.ID,
		ClientID:      v.ClientID,
		ClientName:    v.ClientName,
		ServiceID:     v.ServiceID,
		ServiceName:   v.ServiceName,
		ServicePrice:  v.ServicePrice,
		StartTime:     v.StartTime.UTC().Format(time.RFC3339),
		EndTime:       v.EndTime.UTC().Format(time.RFC3339),
		Paid:          v.Paid,
		BookedAt:      time.Now().UTC().Format(time.RFC3339),
	})
}

// ListForDate handles GET /v1/appointments?date=YYYY-MM-DD and returns
// the day's schedule ordered by start time.  When the response cache is
// enabled this route may serve an entry written before the latest
// booking or cancellation; entries age out within CACHE_TTL (15s by
// default), which is the accepted staleness window for the schedule.
func (h *AppointmentHandler) ListForDate(c echo.Context) error {
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter is required"})
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be formatted YYYY-MM-DD"})
	}
	items, err := h.Sched.ListForDate(c.Request().Context(), day)
	if err != nil {
		c.Logger().Errorf("list appointments: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load appointments"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/appointments/:id.  Absent appointments answer
// 404 so the UI can show "already removed" rather than a failure.
func (h *AppointmentHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	view, err := h.Sched.Get(c.Request().Context(), id)
	if err != nil {
		c.Logger().Errorf("get appointment: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch appointment"})
	}
	if view == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": view})
}

// Availability handles GET /v1/appointments/availability.  It answers
// whether [start, end) is currently free; an optional exclude parameter
// removes one appointment from the check for reschedule previews.  The
// answer is advisory; Book re-checks under its own transaction.
func (h *AppointmentHandler) Availability(c echo.Context) error {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be an RFC3339 timestamp"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be an RFC3339 timestamp"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start"})
	}
	var excludeID uint64
	if ex := c.QueryParam("exclude"); ex != "" {
		n, err := strconv.ParseUint(ex, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude id"})
		}
		excludeID = n
	}
	available, err := h.Sched.IsTimeAvailable(c.Request().Context(), start, end, excludeID)
	if err != nil {
		c.Logger().Errorf("check availability: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}

// TogglePaid handles POST /v1/appointments/:id/toggle-paid and returns
// the new paid value.
func (h *AppointmentHandler) TogglePaid(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	paid, err := h.Sched.TogglePaid(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, scheduler.ErrAppointmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		c.Logger().Errorf("toggle paid: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to toggle payment status"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "paid": paid})
}

// Delete handles DELETE /v1/appointments/:id and cancels the
// appointment permanently.
func (h *AppointmentHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	if err := h.Sched.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, scheduler.ErrAppointmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		c.Logger().Errorf("delete appointment: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete appointment"})
	}

	go func(appointmentID uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishAppointmentCancelled(ctx, queue.AppointmentCancelledEvent{
			EventID:       uuid.NewString(),
			AppointmentID: appointmentID,
			CancelledAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}(id)

	return c.NoContent(http.StatusNoContent)
}
