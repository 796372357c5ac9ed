// Package scheduler owns the appointment book.  It is the only
// component allowed to mutate appointment records, and it maintains the
// one invariant the rest of the system relies on: no two appointments
// ever occupy overlapping [start, end) intervals.
//
// Intervals are half-open, so an appointment ending at 10:30 and one
// starting at 10:30 do not conflict.  Back-to-back bookings are a
// feature of a busy chair, not an error.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chairmanhq/chairman-server/internal/repository"
	"github.com/chairmanhq/chairman-server/internal/validate"
)

// Scheduler checks availability, books, lists, re-flags and cancels
// appointments.  All dependencies are injected at construction; the
// scheduler holds no state of its own between calls and re-reads the
// store on every operation.
type Scheduler struct {
	db       *sql.DB
	appts    *repository.AppointmentRepo
	services *repository.ServiceRepo
}

// New constructs a Scheduler.  All dependencies must be non-nil.
func New(db *sql.DB, appts *repository.AppointmentRepo, services *repository.ServiceRepo) *Scheduler {
	if db == nil || appts == nil || services == nil {
		panic("nil dependency passed to scheduler.New")
	}
	return &Scheduler{db: db, appts: appts, services: services}
}

// BookingRequest carries the caller's input to Book.  End time is not
// part of the request; it is derived from the service's duration and
// buffer at booking time and fixed from then on.
type BookingRequest struct {
	ClientID      uint64
	ServiceID     uint64
	Start         time.Time
	Paid          bool
	PaymentMethod string
	Notes         string
}

// IsTimeAvailable reports whether the half-open interval [start, end)
// is free of other appointments.  excludeID (0 for none) removes one
// appointment from the check, which lets a reschedule evaluate a new
// window without colliding with the appointment being moved.  Pure
// read; no side effects.
//
// Note this is an advisory answer: between this call and a subsequent
// Book another booking may land.  Book re-checks inside its own
// transaction, so callers can use IsTimeAvailable freely for UI
// purposes without weakening the invariant.
func (s *Scheduler) IsTimeAvailable(ctx context.Context, start, end time.Time, excludeID uint64) (bool, error) {
	n, err := s.appts.CountOverlapping(ctx, start.UTC(), end.UTC(), excludeID)
	if err != nil {
		return false, fmt.Errorf("check time availability: %w", err)
	}
	return n == 0, nil
}

// Book creates a new appointment.  The requested service is resolved to
// its duration and buffer, the end time is computed, and the overlap
// check and insert run inside a single transaction with the matched
// rows locked, so two concurrent bookings for overlapping windows can
// never both commit.
//
// Error kinds: ErrServiceNotFound for an unknown service,
// *ValidationError for rejected notes, *ConflictError (carrying the
// requested window) when the slot is taken, and a wrapped storage error
// for anything unexpected.  On any failure the transaction is rolled
// back and the store is unchanged.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest) (uint64, error) {
	if res := validate.Notes(req.Notes); !res.OK() {
		return 0, &ValidationError{Reason: res.Reason}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin booking transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	duration, buffer, err := s.services.GetDurationTx(ctx, tx, req.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrServiceNotFound
		}
		return 0, fmt.Errorf("resolve service %d: %w", req.ServiceID, err)
	}

	start := req.Start.UTC()
	end := start.Add(time.Duration(duration+buffer) * time.Minute)

	n, err := s.appts.CountOverlappingTx(ctx, tx, start, end, 0)
	if err != nil {
		return 0, fmt.Errorf("check availability for booking: %w", err)
	}
	if n > 0 {
		return 0, &ConflictError{Start: start, End: end}
	}

	rec := &repository.AppointmentRecord{
		ClientID:      req.ClientID,
		ServiceID:     req.ServiceID,
		StartTime:     start,
		EndTime:       end,
		Paid:          req.Paid,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if err := s.appts.CreateTx(ctx, tx, rec); err != nil {
		return 0, fmt.Errorf("insert appointment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit booking: %w", err)
	}
	committed = true
	return rec.ID, nil
}

// ListForDate returns all appointments starting on the given calendar
// date, joined with client and service details, ordered ascending by
// start time.
func (s *Scheduler) ListForDate(ctx context.Context, day time.Time) ([]repository.AppointmentView, error) {
	views, err := s.appts.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", day.Format("2006-01-02"), err)
	}
	return views, nil
}

// TogglePaid flips the paid flag of an appointment and returns the new
// value.  Payment state is independent of the interval invariant, but
// the read-flip-write still runs in a transaction with the row locked
// so two toggles cannot interleave.
func (s *Scheduler) TogglePaid(ctx context.Context, id uint64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	paid, err := s.appts.GetPaidTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrAppointmentNotFound
		}
		return false, fmt.Errorf("read paid flag for appointment %d: %w", id, err)
	}
	newPaid := !paid
	if err := s.appts.SetPaidTx(ctx, tx, id, newPaid); err != nil {
		return false, fmt.Errorf("update paid flag for appointment %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}
	committed = true
	return newPaid, nil
}

// Delete cancels an appointment permanently.  There is no soft delete
// and nothing cascades; appointments are leaf records.
func (s *Scheduler) Delete(ctx context.Context, id uint64) error {
	if err := s.appts.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("delete appointment %d: %w", id, err)
	}
	return nil
}

// Get returns the denormalized view of a single appointment, or nil
// (with no error) when the appointment does not exist.  Absence is an
// ordinary answer here, not a failure: the UI uses it to show "already
// removed" instead of an error dialog.
func (s *Scheduler) Get(ctx context.Context, id uint64) (*repository.AppointmentView, error) {
	view, err := s.appts.GetView(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return view, nil
}
