// Package repository implements MySQL data access for the rail-ticketing
// core.  Error values defined here form the failure taxonomy shared by
// the service and handler layers: callers compare with errors.Is and map
// each kind to its own HTTP status.  Not-found conditions carry a
// per-aggregate sentinel so failures name the key that missed.
package repository

import (
	"errors"
	"fmt"
)

// ErrSeatConflict is returned when an active order already occupies the
// requested (train, carriage, seat, departure date).  Callers may retry
// with a different seat.
var ErrSeatConflict = errors.New("seat already booked for this departure")

// ErrInvalidState is returned when an order/ticket transition is applied
// to a record that is not in the expected state, e.g. issuing a ticket
// for an order that is no longer BOOKED.  It usually signals a lost race
// and is not retried automatically.
var ErrInvalidState = errors.New("invalid state for requested transition")

// ErrInvalidItinerary is returned when the requested depart/arrive pair
// does not form a forward segment of the train's route (missing stop,
// or arrival distance not strictly greater than departure distance).
var ErrInvalidItinerary = errors.New("invalid itinerary for train")

// ErrCorrupted signals that a maintenance operation found the journey
// invariant already violated (duplicate station_index for a valid
// train).  The operation aborts without committing partial renumbering.
var ErrCorrupted = errors.New("journey sequence corrupted")

// Not-found sentinels, one per aggregate.
var (
	ErrStationNotFound  = errors.New("station not found")
	ErrTrainNotFound    = errors.New("train not found")
	ErrCapacityNotFound = errors.New("carriage capacity not found")
	ErrJourneyNotFound  = errors.New("journey not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrUserNotFound     = errors.New("user not found")
)

// ValidationError reports input rejected before any write.  Field names
// the offending input, Reason is safe to show to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
