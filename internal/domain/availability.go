package domain

import "fmt"

// IsAvailable decides whether room can be booked for want given the existing
// reservations. Only PENDING and CONFIRMED reservations of the same room block.
// A room flagged unavailable is rejected whatever the dates. An inverted or empty
// range is never available.
//
// The result is advisory: the reservation store re-checks atomically on insert.
func IsAvailable(room Room, want DateRange, existing []Reservation) bool {
	if !room.Available || !want.Valid() {
		return false
	}
	_, found := FindConflict(room, want, existing)
	return !found
}

// FindConflict returns the first blocking reservation overlapping want.
func FindConflict(room Room, want DateRange, existing []Reservation) (Reservation, bool) {
	for _, r := range existing {
		if r.RoomID != room.ID || r.HotelID != room.HotelID {
			continue
		}
		if !r.Status.Blocks() {
			continue
		}
		if want.Overlaps(r.Range()) {
			return r, true
		}
	}
	return Reservation{}, false
}

// CheckAvailability is IsAvailable with a structured failure.
func CheckAvailability(room Room, want DateRange, existing []Reservation) error {
	if !want.Valid() {
		return fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrInvalidRange, want.End.Format(DateLayout), want.Start.Format(DateLayout))
	}
	if !room.Available {
		return fmt.Errorf("%w: room %d is closed for booking", ErrRoomUnavailable, room.ID)
	}
	if c, found := FindConflict(room, want, existing); found {
		return fmt.Errorf("%w: room %d is booked %s", ErrRoomUnavailable, room.ID, c.Range())
	}
	return nil
}
