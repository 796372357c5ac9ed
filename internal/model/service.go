package model

import "time"

// Service is an entry in the salon's service catalog (haircut, beard
// trim, colour, ...).  Duration and buffer are resolved when an
// appointment is booked and baked into the appointment's end time;
// editing a service later never moves existing appointments.  This
// struct corresponds to a row in the `services` table.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – unique service name (case-insensitive).
//  Price           – price charged for the service.
//  DurationMinutes – nominal length of the service.
//  BufferMinutes   – cleanup/padding time occupied after the service.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Service struct {
	ID              uint64    `json:"id"`               // services.id
	Name            string    `json:"name"`             // services.name
	Price           float64   `json:"price"`            // services.price
	DurationMinutes uint32    `json:"duration_minutes"` // services.duration_minutes
	BufferMinutes   uint32    `json:"buffer_minutes"`   // services.buffer_minutes
	CreatedAt       time.Time `json:"created_at"`       // services.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // services.updated_at
}
