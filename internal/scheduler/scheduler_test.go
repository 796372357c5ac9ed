package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chairmanhq/chairman-server/internal/repository"
)

const (
	qDuration      = `SELECT duration_minutes, buffer_minutes FROM services WHERE id = ?`
	qOverlapTx     = `SELECT COUNT(*) FROM appointments WHERE NOT (end_time <= ? OR start_time >= ?) FOR UPDATE`
	qOverlap       = `SELECT COUNT(*) FROM appointments WHERE NOT (end_time <= ? OR start_time >= ?)`
	qOverlapExcl   = `SELECT COUNT(*) FROM appointments WHERE id <> ? AND NOT (end_time <= ? OR start_time >= ?)`
	qInsert        = `INSERT INTO appointments`
	qPaidForUpdate = `SELECT paid FROM appointments WHERE id = ? FOR UPDATE`
	qSetPaid       = `UPDATE appointments SET paid = ? WHERE id = ?`
	qDelete        = `DELETE FROM appointments WHERE id = ?`
)

func newScheduler(t *testing.T) (*Scheduler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, repository.NewAppointmentRepo(db), repository.NewServiceRepo(db)), mock
}

func TestBookComputesEndTimeFromDurationAndBuffer(t *testing.T) {
	s, mock := newScheduler(t)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	wantEnd := start.Add(45 * time.Minute) // 30 duration + 15 buffer

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qDuration)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"duration_minutes", "buffer_minutes"}).AddRow(30, 15))
	mock.ExpectQuery(regexp.QuoteMeta(qOverlapTx)).
		WithArgs(start, wantEnd).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(qInsert).
		WithArgs(uint64(3), uint64(7), start, wantEnd, true, "card", "fade, short on sides").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	id, err := s.Book(context.Background(), BookingRequest{
		ClientID:      3,
		ServiceID:     7,
		Start:         start,
		Paid:          true,
		PaymentMethod: "card",
		Notes:         "fade, short on sides",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookNormalizesStartToUTC(t *testing.T) {
	s, mock := newScheduler(t)
	loc := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, loc) // 09:00 UTC
	wantStart := start.UTC()
	wantEnd := wantStart.Add(30 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qDuration)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"duration_minutes", "buffer_minutes"}).AddRow(30, 0))
	mock.ExpectQuery(regexp.QuoteMeta(qOverlapTx)).
		WithArgs(wantStart, wantEnd).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(qInsert).
		WithArgs(uint64(1), uint64(1), wantStart, wantEnd, false, "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := s.Book(context.Background(), BookingRequest{ClientID: 1, ServiceID: 1, Start: start})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookConflictRollsBackAndReportsWindow(t *testing.T) {
	s, mock := newScheduler(t)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(60 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qDuration)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"duration_minutes", "buffer_minutes"}).AddRow(45, 15))
	mock.ExpectQuery(regexp.QuoteMeta(qOverlapTx)).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectRollback()

	_, err := s.Book(context.Background(), BookingRequest{ClientID: 1, ServiceID: 2, Start: start})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, start, conflict.Start)
	assert.Equal(t, end, conflict.End)
	assert.Equal(t, "time slot from 10:00 AM to 11:00 AM is not available", conflict.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookUnknownServiceRollsBackBeforeOverlapCheck(t *testing.T) {
	s, mock := newScheduler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qDuration)).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.Book(context.Background(), BookingRequest{
		ClientID:  1,
		ServiceID: 99,
		Start:     time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, ErrServiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRejectsOverlongNotesWithoutTouchingStore(t *testing.T) {
	s, mock := newScheduler(t)

	_, err := s.Book(context.Background(), BookingRequest{
		ClientID:  1,
		ServiceID: 1,
		Start:     time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Notes:     strings.Repeat("x", 501),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookInsertFailureRollsBack(t *testing.T) {
	s, mock := newScheduler(t)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(qDuration)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"duration_minutes", "buffer_minutes"}).AddRow(30, 0))
	mock.ExpectQuery(regexp.QuoteMeta(qOverlapTx)).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(qInsert).
		WithArgs(uint64(1), uint64(1), start, end, false, "", "").
		WillReturnError(fmt.Errorf("deadlock found"))
	mock.ExpectRollback()

	_, err := s.Book(context.Background(), BookingRequest{ClientID: 1, ServiceID: 1, Start: start})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert appointment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTimeAvailable(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	t.Run("free slot", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectQuery(regexp.QuoteMeta(qOverlap)).
			WithArgs(start, end).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

		free, err := s.IsTimeAvailable(context.Background(), start, end, 0)
		require.NoError(t, err)
		assert.True(t, free)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("occupied slot", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectQuery(regexp.QuoteMeta(qOverlap)).
			WithArgs(start, end).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))

		free, err := s.IsTimeAvailable(context.Background(), start, end, 0)
		require.NoError(t, err)
		assert.False(t, free)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exclusion removes the rescheduled appointment", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectQuery(regexp.QuoteMeta(qOverlapExcl)).
			WithArgs(uint64(5), start, end).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

		free, err := s.IsTimeAvailable(context.Background(), start, end, 5)
		require.NoError(t, err)
		assert.True(t, free)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		s, mock := newScheduler(t)
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(regexp.QuoteMeta(qOverlap)).
			WithArgs(start, end).
			WillReturnError(dbErr)

		_, err := s.IsTimeAvailable(context.Background(), start, end, 0)
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "check time availability")
	})
}

func TestTogglePaidFlipsInsideTransaction(t *testing.T) {
	t.Run("unpaid becomes paid", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(qPaidForUpdate)).
			WithArgs(uint64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"paid"}).AddRow(false))
		mock.ExpectExec(regexp.QuoteMeta(qSetPaid)).
			WithArgs(true, uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		paid, err := s.TogglePaid(context.Background(), 11)
		require.NoError(t, err)
		assert.True(t, paid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("paid becomes unpaid", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(qPaidForUpdate)).
			WithArgs(uint64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"paid"}).AddRow(true))
		mock.ExpectExec(regexp.QuoteMeta(qSetPaid)).
			WithArgs(false, uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		paid, err := s.TogglePaid(context.Background(), 11)
		require.NoError(t, err)
		assert.False(t, paid)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(qPaidForUpdate)).
			WithArgs(uint64(404)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := s.TogglePaid(context.Background(), 404)
		require.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes the row", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectExec(regexp.QuoteMeta(qDelete)).
			WithArgs(uint64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Delete(context.Background(), 9))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown appointment", func(t *testing.T) {
		s, mock := newScheduler(t)
		mock.ExpectExec(regexp.QuoteMeta(qDelete)).
			WithArgs(uint64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Delete(context.Background(), 9)
		require.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestGetReturnsNilForAbsentAppointment(t *testing.T) {
	s, mock := newScheduler(t)
	mock.ExpectQuery(`SELECT .+ FROM appointments a`).
		WithArgs(uint64(123)).
		WillReturnError(sql.ErrNoRows)

	view, err := s.Get(context.Background(), 123)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestListForDateOrdersAscending(t *testing.T) {
	s, mock := newScheduler(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"a.id", "a.start_time", "a.end_time", "a.paid", "a.payment_method", "a.notes",
		"c.id", "c.name", "c.phone",
		"s.id", "s.name", "s.price", "s.duration_minutes", "s.buffer_minutes",
	}).
		AddRow(1, day.Add(9*time.Hour), day.Add(9*time.Hour+30*time.Minute), true, "cash", "",
			3, "Dana Reeve", "5551234567",
			7, "Haircut", 35.0, 30, 0).
		AddRow(2, day.Add(10*time.Hour), day.Add(11*time.Hour), false, "", "beard trim too",
			4, "Omar Haddad", "5559876543",
			8, "Cut & Shave", 55.0, 45, 15)

	mock.ExpectQuery(`SELECT .+ FROM appointments a\s+JOIN clients c ON c\.id = a\.client_id\s+JOIN services s ON s\.id = a\.service_id\s+WHERE DATE\(a\.start_time\) = \?\s+ORDER BY a\.start_time ASC`).
		WithArgs("2026-03-10").
		WillReturnRows(rows)

	views, err := s.ListForDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Dana Reeve", views[0].ClientName)
	assert.Equal(t, "Haircut", views[0].ServiceName)
	assert.True(t, views[0].StartTime.Before(views[1].StartTime))
	assert.Equal(t, uint32(45), views[1].ServiceDuration)
	assert.Equal(t, uint32(15), views[1].ServiceBuffer)
	assert.NoError(t, mock.ExpectationsWereMet())
}
