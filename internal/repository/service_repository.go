package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/chairmanhq/chairman-server/internal/model"
)

// ServiceRepo provides CRUD operations for the service catalog.  The
// scheduler consumes exactly one read from here at booking time, the
// duration/buffer lookup; the rest serves the catalog endpoints.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// Create inserts a new catalog entry and populates the generated ID.
// Names are unique case-insensitively; a duplicate is rejected with
// ErrDuplicateService.
func (r *ServiceRepo) Create(ctx context.Context, svc *model.Service) error {
	const q = `INSERT INTO services (name, price, duration_minutes, buffer_minutes) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, svc.Name, svc.Price, svc.DurationMinutes, svc.BufferMinutes)
	if err != nil {
		if strings.Contains(err.Error(), "1062") { // unique key violation
			return ErrDuplicateService
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	svc.ID = uint64(id)
	return nil
}

// List returns the whole catalog ordered by name.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	const q = `SELECT id, name, price, duration_minutes, buffer_minutes, created_at, updated_at
		FROM services ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	services := make([]model.Service, 0)
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationMinutes, &svc.BufferMinutes, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

// GetByID fetches a single catalog entry.  Returns sql.ErrNoRows when absent.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	var svc model.Service
	const q = `SELECT id, name, price, duration_minutes, buffer_minutes, created_at, updated_at
		FROM services WHERE id = ?`
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationMinutes, &svc.BufferMinutes, &svc.CreatedAt, &svc.UpdatedAt)
	return svc, err
}

// GetDurationTx resolves duration and buffer minutes for a service
// inside the caller's transaction.  This is the lookup the scheduler
// performs while booking; running it in the booking transaction keeps
// the resolved values consistent with the interval that gets inserted.
// Returns sql.ErrNoRows when the service does not exist.
func (r *ServiceRepo) GetDurationTx(ctx context.Context, tx *sql.Tx, id uint64) (duration, buffer uint32, err error) {
	const q = `SELECT duration_minutes, buffer_minutes FROM services WHERE id = ?`
	err = tx.QueryRowContext(ctx, q, id).Scan(&duration, &buffer)
	return duration, buffer, err
}

// Update applies a partial update; nil fields are left untouched.
// Renaming onto an existing name is rejected with ErrDuplicateService.
func (r *ServiceRepo) Update(ctx context.Context, id uint64, name *string, price *float64, duration, buffer *uint32) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *price)
	}
	if duration != nil {
		sets = append(sets, "duration_minutes = ?")
		args = append(args, *duration)
	}
	if buffer != nil {
		sets = append(sets, "buffer_minutes = ?")
		args = append(args, *buffer)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := "UPDATE services SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateService
		}
		return err
	}
	return nil
}

// Delete removes a catalog entry.  A service that appointments still
// reference cannot be deleted; the caller receives ErrConflict and the
// catalog stays intact.  Returns sql.ErrNoRows when the id is unknown.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	var inUse int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE service_id = ?`, id).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
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
