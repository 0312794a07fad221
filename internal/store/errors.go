package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint would be violated.
var ErrConflict = errors.New("already exists")

// ErrTokenMismatch is returned by the conditional refresh-token rotation
// when the stored token no longer matches the presented one.
var ErrTokenMismatch = errors.New("refresh token mismatch")
