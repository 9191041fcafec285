package service

import (
	"errors"

	"salon-sync-server/internal/domain"
)

var ErrInvalidTimeSlot = errors.New("invalid time slot")

// ConflictError reports that an optimistic-locked update lost to a concurrent
// write. Remote is the store's current copy, attached so the caller can run
// conflict detection and resolution without another read.
type ConflictError struct {
	Remote *domain.Reservation
}

func (e *ConflictError) Error() string {
	return "version conflict"
}
