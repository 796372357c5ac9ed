package repository

import (
	"context"
	"database/sql"
	"time"
)

// AppointmentRepo provides persistence for appointment interval records.
// The table stores half-open [start_time, end_time) intervals; the
// overlap queries below implement the strict test
// NOT (end <= start' OR start >= end'), under which two intervals that
// merely touch do not conflict.  All timestamps are stored in UTC.
//
// The repo never decides whether a booking is allowed; that is the
// scheduler's job.  It only answers counting/insert/update/delete
// requests, with Tx variants for the operations that must share a
// transaction with the availability check.
type AppointmentRepo struct {
	db *sql.DB
}

// NewAppointmentRepo returns a new AppointmentRepo bound to the given database.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning several repository calls.
func (r *AppointmentRepo) DB() *sql.DB { return r.db }

// AppointmentRecord mirrors the schema of the appointments table.  It is
// used by the scheduler when constructing rows; read paths use the
// denormalized AppointmentView instead.
type AppointmentRecord struct {
	ID            uint64
	ClientID      uint64
	ServiceID     uint64
	StartTime     time.Time
	EndTime       time.Time
	Paid          bool
	PaymentMethod string
	Notes         string
}

// AppointmentView is the denormalized projection of an appointment
// joined with its client and service, assembled at read time for
// display.  Only the foreign keys are persisted; the service price,
// duration and buffer shown here reflect the catalog's current values,
// while end_time remains fixed from the moment of booking.
type AppointmentView struct {
	ID              uint64    `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Paid            bool      `json:"paid"`
	PaymentMethod   string    `json:"payment_method"`
	Notes           string    `json:"notes"`
	ClientID        uint64    `json:"client_id"`
	ClientName      string    `json:"client_name"`
	ClientPhone     string    `json:"client_phone"`
	ServiceID       uint64    `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	ServicePrice    float64   `json:"service_price"`
	ServiceDuration uint32    `json:"service_duration_minutes"`
	ServiceBuffer   uint32    `json:"service_buffer_minutes"`
}

// CountOverlapping returns how many stored appointments overlap the
// half-open interval [start, end).  When excludeID is non-zero that
// appointment is left out of the count, which lets a reschedule check a
// new window without colliding with itself.
func (r *AppointmentRepo) CountOverlapping(ctx context.Context, start, end time.Time, excludeID uint64) (int, error) {
	var n int
	var err error
	if excludeID != 0 {
		const q = `SELECT COUNT(*) FROM appointments WHERE id <> ? AND NOT (end_time <= ? OR start_time >= ?)`
		err = r.db.QueryRowContext(ctx, q, excludeID, start, end).Scan(&n)
	} else {
		const q = `SELECT COUNT(*) FROM appointments WHERE NOT (end_time <= ? OR start_time >= ?)`
		err = r.db.QueryRowContext(ctx, q, start, end).Scan(&n)
	}
	return n, err
}

// CountOverlappingTx is the transactional variant of CountOverlapping.
// It locks the matching rows with FOR UPDATE so that a concurrent
// booking for an overlapping window blocks until this transaction
// commits or rolls back; paired with the insert in the same
// transaction this closes the check-then-insert race.
func (r *AppointmentRepo) CountOverlappingTx(ctx context.Context, tx *sql.Tx, start, end time.Time, excludeID uint64) (int, error) {
	var n int
	var err error
	if excludeID != 0 {
		const q = `SELECT COUNT(*) FROM appointments WHERE id <> ? AND NOT (end_time <= ? OR start_time >= ?) FOR UPDATE`
		err = tx.QueryRowContext(ctx, q, excludeID, start, end).Scan(&n)
	} else {
		const q = `SELECT COUNT(*) FROM appointments WHERE NOT (end_time <= ? OR start_time >= ?) FOR UPDATE`
		err = tx.QueryRowContext(ctx, q, start, end).Scan(&n)
	}
	return n, err
}

// CreateTx inserts a new appointment within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or rollback the transaction.
func (r *AppointmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *AppointmentRecord) error {
	const q = `INSERT INTO appointments
		(client_id, service_id, start_time, end_time, paid, payment_method, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rec.ClientID, rec.ServiceID, rec.StartTime, rec.EndTime,
		rec.Paid, rec.PaymentMethod, rec.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// GetPaidTx reads the paid flag for an appointment, locking the row so a
// toggle cannot interleave with another writer.  Returns sql.ErrNoRows
// when the appointment does not exist.
func (r *AppointmentRepo) GetPaidTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var paid bool
	const q = `SELECT paid FROM appointments WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, q, id).Scan(&paid); err != nil {
		return false, err
	}
	return paid, nil
}

// SetPaidTx updates the paid flag within the caller's transaction.
func (r *AppointmentRepo) SetPaidTx(ctx context.Context, tx *sql.Tx, id uint64, paid bool) error {
	const q = `UPDATE appointments SET paid = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, paid, id)
	return err
}

// Delete hard-deletes an appointment.  Returns sql.ErrNoRows when no
// row matched the id; appointments are leaf records so nothing cascades.
func (r *AppointmentRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM appointments WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// viewColumns is the shared select list for the projection queries.
const viewColumns = `a.id, a.start_time, a.end_time, a.paid, a.payment_method, a.notes,
	       c.id, c.name, c.phone,
	       s.id, s.name, s.price, s.duration_minutes, s.buffer_minutes`

func scanView(row interface{ Scan(...any) error }) (*AppointmentView, error) {
	var v AppointmentView
	if err := row.Scan(
		&v.ID, &v.StartTime, &v.EndTime, &v.Paid, &v.PaymentMethod, &v.Notes,
		&v.ClientID, &v.ClientName, &v.ClientPhone,
		&v.ServiceID, &v.ServiceName, &v.ServicePrice, &v.ServiceDuration, &v.ServiceBuffer,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByDate returns every appointment whose start time falls on the
// given calendar date, joined with client and service details and
// ordered ascending by start time.  A day at a salon holds at most a
// few dozen appointments, so no pagination is offered.
func (r *AppointmentRepo) ListByDate(ctx context.Context, day time.Time) ([]AppointmentView, error) {
	const q = `SELECT ` + viewColumns + `
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		WHERE DATE(a.start_time) = ?
		ORDER BY a.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views := make([]AppointmentView, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// GetView returns the projection for a single appointment.  When the
// appointment does not exist, sql.ErrNoRows is returned.
func (r *AppointmentRepo) GetView(ctx context.Context, id uint64) (*AppointmentView, error) {
	const q = `SELECT ` + viewColumns + `
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		WHERE a.id = ?`
	return scanView(r.db.QueryRowContext(ctx, q, id))
}
