package model

import "time"

// Client is a person who books appointments at the salon.  The
// scheduler only references clients by ID; the rest of the fields
// exist for display and contact purposes.  This struct corresponds
// to a row in the `clients` table.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – client's full name.
//  Phone       – contact phone number (may be empty).
//  Notes       – free-form notes about the client.
//  NoShowCount – number of appointments the client missed.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Client struct {
	ID          uint64    `json:"id"`            // clients.id
	Name        string    `json:"name"`          // clients.name
	Phone       string    `json:"phone"`         // clients.phone
	Notes       string    `json:"notes"`         // clients.notes
	NoShowCount uint32    `json:"no_show_count"` // clients.no_show_count
	CreatedAt   time.Time `json:"created_at"`    // clients.created_at
	UpdatedAt   time.Time `json:"updated_at"`    // clients.updated_at
}
