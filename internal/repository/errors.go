// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// knowing which backend produced them.  For example, ErrNotFound
// indicates that a holder or closed period does not exist, while
// ErrInvalidSetting signals a settings value that cannot be stored
// (e.g. a closing time before the opening time).
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrInvalidSetting is returned when an administrator tries to store a
// venue setting that could never be satisfied.  Handlers should
// translate this into an HTTP 400 response.
var ErrInvalidSetting = errors.New("invalid setting")
