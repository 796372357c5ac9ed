package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/chairmanhq/chairman-server/internal/model"
)

// ClientRepo provides CRUD operations for the salon's client directory.
// The scheduler treats clients as opaque foreign keys; everything here
// exists for the directory endpoints and for the read-time projection
// of appointments.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo returns a new ClientRepo bound to the given database.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

// Create inserts a new client and populates the generated ID.  A client
// with the same name and phone as an existing record is rejected with
// ErrDuplicateClient; the pair is the closest thing a walk-in salon has
// to a natural key.
func (r *ClientRepo) Create(ctx context.Context, cl *model.Client) error {
	exists, err := r.exists(ctx, cl.Name, cl.Phone)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateClient
	}
	const q = `INSERT INTO clients (name, phone, notes) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, cl.Name, cl.Phone, cl.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cl.ID = uint64(id)
	return nil
}

// List returns all clients ordered by name.
func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	const q = `SELECT id, name, phone, notes, no_show_count, created_at, updated_at
		FROM clients ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients := make([]model.Client, 0)
	for rows.Next() {
		var cl model.Client
		if err := rows.Scan(&cl.ID, &cl.Name, &cl.Phone, &cl.Notes, &cl.NoShowCount, &cl.CreatedAt, &cl.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

// Search returns clients whose name or phone contains the query,
// ordered by name.  This backs the directory's find-as-you-type box, so
// the match is a plain substring on either column.
func (r *ClientRepo) Search(ctx context.Context, query string) ([]model.Client, error) {
	const q = `SELECT id, name, phone, notes, no_show_count, created_at, updated_at
		FROM clients WHERE name LIKE ? OR phone LIKE ? ORDER BY name`
	like := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, q, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients := make([]model.Client, 0)
	for rows.Next() {
		var cl model.Client
		if err := rows.Scan(&cl.ID, &cl.Name, &cl.Phone, &cl.Notes, &cl.NoShowCount, &cl.CreatedAt, &cl.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

// GetByID fetches a single client.  Returns sql.ErrNoRows when absent.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.Client, error) {
	var cl model.Client
	const q = `SELECT id, name, phone, notes, no_show_count, created_at, updated_at
		FROM clients WHERE id = ?`
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&cl.ID, &cl.Name, &cl.Phone, &cl.Notes, &cl.NoShowCount, &cl.CreatedAt, &cl.UpdatedAt)
	return cl, err
}

// Update applies a partial update; nil fields are left untouched.  The
// SET clause is assembled dynamically the same way the directory has
// always done it, so a PATCH with a single field issues a single-column
// update.
func (r *ClientRepo) Update(ctx context.Context, id uint64, name, phone, notes *string) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *phone)
	}
	if notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *notes)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := "UPDATE clients SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// IncrementNoShow bumps the client's no-show counter.  Returns
// sql.ErrNoRows when the client does not exist.
func (r *ClientRepo) IncrementNoShow(ctx context.Context, id uint64) error {
	const q = `UPDATE clients SET no_show_count = no_show_count + 1 WHERE id = ?`
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

// Delete removes a client.  Clients referenced by appointments are
// protected by the foreign key; the resulting constraint failure is
// surfaced as ErrConflict so handlers answer 409 instead of 500.
func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM clients WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		if strings.Contains(err.Error(), "1451") { // FK row referenced
			return ErrConflict
		}
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

// exists reports whether a client with the given name and phone is
// already on file (case-insensitive on the name).
func (r *ClientRepo) exists(ctx context.Context, name, phone string) (bool, error) {
	var n int
	const q = `SELECT COUNT(*) FROM clients WHERE LOWER(name) = LOWER(?) AND phone = ?`
	if err := r.db.QueryRowContext(ctx, q, name, phone).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
