// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrEmailExists indicates a registration attempt with an
// email that already has an account, while ErrConflict signals that
// an operation cannot proceed due to conflicting existing records.
package repository

import "errors"

// ErrConflict is returned when an insert or update cannot be performed
// because of conflicting state. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user registration collides with an
// existing account. It is a specific case of ErrConflict kept separate
// so the handler can produce a precise message.
var ErrEmailExists = errors.New("email already exists")
