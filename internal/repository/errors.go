// Package repository defines error types that are reused across the
// data access layer. These sentinel values allow higher layers such as
// the scheduler and the occupancy consumers to distinguish between
// different failure scenarios.
package repository

import "errors"

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrConflict is returned when a commit cannot be applied because a
// seat no longer has the status it had when it was read (for example a
// sensor event landed between a drift tick's read and its commit). The
// whole commit is rolled back.
var ErrConflict = errors.New("conflict")

// ErrInvalidStatus is returned when a status outside the known set is
// written.
var ErrInvalidStatus = errors.New("invalid seat status")
