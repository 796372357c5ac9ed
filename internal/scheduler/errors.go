package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// The scheduler reports failures as distinguishable error values so
// callers can branch on the kind without string matching: sentinel
// errors for the not-found cases (errors.Is), typed errors for the
// cases that carry data (errors.As).  Anything unexpected from the
// store is wrapped with %w so the cause stays available for logging.

// ErrServiceNotFound is returned by Book when the requested service id
// does not exist in the catalog.  The booking is rejected before any
// availability check runs and nothing is written.
var ErrServiceNotFound = errors.New("service does not exist")

// ErrAppointmentNotFound is returned by TogglePaid and Delete when no
// appointment has the given id.
var ErrAppointmentNotFound = errors.New("appointment does not exist")

// ConflictError rejects a booking whose requested window overlaps an
// existing appointment.  Start and End carry the bounds of the window
// that was asked for, so the caller can render a message naming the
// occupied slot.
type ConflictError struct {
	Start time.Time
	End   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time slot from %s to %s is not available",
		e.Start.Format("3:04 PM"), e.End.Format("3:04 PM"))
}

// ValidationError rejects a booking whose input failed validation
// (today: the notes length bound).  Reason is human-readable and safe
// to surface directly.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
