package model

import "time"

// Appointment is a booked time slot for a client and a service.
// StartTime/EndTime form a half-open interval [StartTime, EndTime);
// no two appointments may overlap.  EndTime is computed at booking
// time from the service's duration plus buffer and is never
// recomputed afterwards.  This struct corresponds to a row in the
// `appointments` table.
//
// Fields:
//  ID            – primary key identifier.
//  ClientID      – client the slot is booked for.
//  ServiceID     – service performed during the slot.
//  StartTime     – when the appointment begins (UTC).
//  EndTime       – when the occupied interval ends (UTC, exclusive).
//  Paid          – whether the appointment has been paid.
//  PaymentMethod – free-text payment method (cash, card, ...).
//  Notes         – free-form notes, length-bounded by validation.
//  CreatedAt     – creation timestamp.
type Appointment struct {
	ID            uint64    `json:"id"`             // appointments.id
	ClientID      uint64    `json:"client_id"`      // appointments.client_id
	ServiceID     uint64    `json:"service_id"`     // appointments.service_id
	StartTime     time.Time `json:"start_time"`     // appointments.start_time
	EndTime       time.Time `json:"end_time"`       // appointments.end_time
	Paid          bool      `json:"paid"`           // appointments.paid
	PaymentMethod string    `json:"payment_method"` // appointments.payment_method
	Notes         string    `json:"notes"`          // appointments.notes
	CreatedAt     time.Time `json:"created_at"`     // appointments.created_at
}
