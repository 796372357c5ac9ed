// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed due to
// existing dependent records (e.g. deleting a service that still has
// appointments), while the duplicate errors mark unique-constraint style
// rejections that should read as 409s rather than 500s.
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as attempting to delete a service
// that appointments still reference. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicateClient is returned when creating a client whose name and
// phone match an existing record.
var ErrDuplicateClient = errors.New("client already exists")

// ErrDuplicateService is returned when creating or renaming a service
// to a name already present in the catalog.
var ErrDuplicateService = errors.New("service name already exists")
