package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairmanhq/chairman-server/internal/repository"
	"github.com/chairmanhq/chairman-server/internal/scheduler"
)

func newAppointmentHandler(t *testing.T) (*AppointmentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sched := scheduler.New(db, repository.NewAppointmentRepo(db), repository.NewServiceRepo(db))
	return NewAppointmentHandler(sched), mock
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBookEndpointConflictReturns409WithWindow(t *testing.T) {
	h, mock := newAppointmentHandler(t)
	e := echo.New()
	e.POST("/v1/appointments", h.Book)

	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(60 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT duration_minutes, buffer_minutes FROM services WHERE id = ?`)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"duration_minutes", "buffer_minutes"}).AddRow(45, 15))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM appointments WHERE NOT (end_time <= ? OR start_time >= ?) FOR UPDATE`)).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectRollback()

	rec := doJSON(e, http.MethodPost, "/v1/appointments",
		`{"client_id":1,"service_id":2,"start_time":"2026-03-10T10:00:00Z"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-10T10:00:00Z", resp["conflict_start"])
	assert.Equal(t, "2026-03-10T11:00:00Z", resp["conflict_end"])
	assert.Contains(t, resp["error"], "not available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookEndpointRejectsMissingFields(t *testing.T) {
	h, _ := newAppointmentHandler(t)
	e := echo.New()
	e.POST("/v1/appointments", h.Book)

	cases := []struct {
		name string
		body string
	}{
		{"no client", `{"service_id":2,"start_time":"2026-03-10T10:00:00Z"}`},
		{"no service", `{"client_id":1,"start_time":"2026-03-10T10:00:00Z"}`},
		{"no start", `{"client_id":1,"service_id":2}`},
		{"garbage body", `{"client_id":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/v1/appointments", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetEndpointAnswers404ForAbsentAppointment(t *testing.T) {
	h, mock := newAppointmentHandler(t)
	e := echo.New()
	e.GET("/v1/appointments/:id", h.Get)

	mock.ExpectQuery(`SELECT .+ FROM appointments a`).
		WithArgs(uint64(77)).
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(e, http.MethodGet, "/v1/appointments/77", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	h, mock := newAppointmentHandler(t)
	e := echo.New()
	e.GET("/v1/appointments/availability", h.Availability)

	t.Run("free window", func(t *testing.T) {
		start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		end := start.Add(30 * time.Minute)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM appointments WHERE NOT (end_time <= ? OR start_time >= ?)`)).
			WithArgs(start, end).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

		rec := doJSON(e, http.MethodGet,
			"/v1/appointments/availability?start=2026-03-10T09:00:00Z&end=2026-03-10T09:30:00Z", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"available":true}`, rec.Body.String())
	})

	t.Run("exclude parameter", func(t *testing.T) {
		start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		end := start.Add(30 * time.Minute)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM appointments WHERE id <> ? AND NOT (end_time <= ? OR start_time >= ?)`)).
			WithArgs(uint64(5), start, end).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

		rec := doJSON(e, http.MethodGet,
			"/v1/appointments/availability?start=2026-03-10T09:00:00Z&end=2026-03-10T09:30:00Z&exclude=5", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"available":true}`, rec.Body.String())
	})

	t.Run("end before start", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet,
			"/v1/appointments/availability?start=2026-03-10T10:00:00Z&end=2026-03-10T09:00:00Z", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad timestamps", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet,
			"/v1/appointments/availability?start=tomorrow&end=later", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTogglePaidEndpoint(t *testing.T) {
	h, mock := newAppointmentHandler(t)
	e := echo.New()
	e.POST("/v1/appointments/:id/toggle-paid", h.TogglePaid)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT paid FROM appointments WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"paid"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE appointments SET paid = ? WHERE id = ?`)).
		WithArgs(true, uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(e, http.MethodPost, "/v1/appointments/11/toggle-paid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":11,"paid":true}`, rec.Body.String())
}

func TestListForDateEndpointValidatesDate(t *testing.T) {
	h, _ := newAppointmentHandler(t)
	e := echo.New()
	e.GET("/v1/appointments", h.ListForDate)

	rec := doJSON(e, http.MethodGet, "/v1/appointments", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/appointments?date=03-10-2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
