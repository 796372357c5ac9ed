// Package queue defines message payloads exchanged over the message broker.
package queue

// AppointmentBookedEvent is published after a booking commits.  It
// carries enough detail for downstream consumers (the booking log
// today, reminders or analytics later) to act without querying the
// primary database.
type AppointmentBookedEvent struct {
	EventID       string  `json:"event_id"`
	AppointmentID uint64  `json:"appointment_id"`
	ClientID      uint64  `json:"client_id"`
	ClientName    string  `json:"client_name"`
	ServiceID     uint64  `json:"service_id"`
	ServiceName   string  `json:"service_name"`
	ServicePrice  float64 `json:"service_price"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Paid          bool    `json:"paid"`
	BookedAt      string  `json:"booked_at"`
}

// AppointmentCancelledEvent is published after an appointment is
// hard-deleted.
type AppointmentCancelledEvent struct {
	EventID       string `json:"event_id"`
	AppointmentID uint64 `json:"appointment_id"`
	CancelledAt   string `json:"cancelled_at"`
}
