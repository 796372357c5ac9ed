// Package validate centralizes input validation for the salon API.
// Every check returns a Result carrying a human-readable reason; the
// messages go straight into API error responses, so they are written
// for people, not logs.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Bounds applied by the validators.
const (
	ClientNameMinLen = 2
	ClientNameMaxLen = 100
	PhoneMinDigits   = 7
	PhoneMaxDigits   = 15
	ServiceNameMin   = 2
	ServiceNameMax   = 100
	NotesMaxLen      = 500
	DurationMinMins  = 5
	DurationMaxMins  = 480
	BufferMaxMins    = 60
)

// Result reports the outcome of a single validation check.
type Result struct {
	Valid  bool
	Reason string
}

// OK reports whether the validated value was accepted.
func (r Result) OK() bool { return r.Valid }

func ok() Result               { return Result{Valid: true} }
func bad(reason string) Result { return Result{Reason: reason} }

var (
	clientNamePattern = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)
	phoneStripPattern = regexp.MustCompile(`[\s\-().]`)
	digitsPattern     = regexp.MustCompile(`^[0-9]+$`)
)

// ClientName checks a client's display name: required, length-bounded,
// letters/spaces/hyphens/apostrophes/periods only.
func ClientName(name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return bad("client name cannot be empty")
	}
	if len(name) < ClientNameMinLen {
		return bad(fmt.Sprintf("client name must be at least %d characters", ClientNameMinLen))
	}
	if len(name) > ClientNameMaxLen {
		return bad(fmt.Sprintf("client name cannot exceed %d characters", ClientNameMaxLen))
	}
	if !clientNamePattern.MatchString(name) {
		return bad("client name can only contain letters, spaces, hyphens, and apostrophes")
	}
	return ok()
}

// Phone checks a phone number.  Phone is optional: empty passes.
// Common separators are stripped before the digit check.
func Phone(phone string) Result {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ok()
	}
	cleaned := phoneStripPattern.ReplaceAllString(phone, "")
	if !digitsPattern.MatchString(cleaned) {
		return bad("phone number can only contain digits and formatting characters")
	}
	if len(cleaned) < PhoneMinDigits {
		return bad(fmt.Sprintf("phone number must be at least %d digits", PhoneMinDigits))
	}
	if len(cleaned) > PhoneMaxDigits {
		return bad(fmt.Sprintf("phone number cannot exceed %d digits", PhoneMaxDigits))
	}
	return ok()
}

// ServiceName checks a catalog entry's name.
func ServiceName(name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return bad("service name cannot be empty")
	}
	if len(name) < ServiceNameMin {
		return bad(fmt.Sprintf("service name must be at least %d characters", ServiceNameMin))
	}
	if len(name) > ServiceNameMax {
		return bad(fmt.Sprintf("service name cannot exceed %d characters", ServiceNameMax))
	}
	return ok()
}

// Price checks a service price.
func Price(price float64) Result {
	if price < 0 {
		return bad("price cannot be negative")
	}
	return ok()
}

// Duration checks a service's nominal duration in minutes.
func Duration(minutes uint32) Result {
	if minutes < DurationMinMins {
		return bad(fmt.Sprintf("duration must be at least %d minutes", DurationMinMins))
	}
	if minutes > DurationMaxMins {
		return bad(fmt.Sprintf("duration cannot exceed %d minutes", DurationMaxMins))
	}
	return ok()
}

// Buffer checks a service's buffer minutes.
func Buffer(minutes uint32) Result {
	if minutes > BufferMaxMins {
		return bad(fmt.Sprintf("buffer cannot exceed %d minutes", BufferMaxMins))
	}
	return ok()
}

// Notes checks free-form notes attached to appointments or clients.
// Notes are optional; only the length bound applies.
func Notes(notes string) Result {
	if len(notes) > NotesMaxLen {
		return bad(fmt.Sprintf("notes cannot exceed %d characters", NotesMaxLen))
	}
	return ok()
}
