package domain

import "github.com/shopspring/decimal"

// Room is owned by the hotel service; the booking core only reads it.
// ID is the persistent identity. RoomNumber is what guests see on the door and
// must never be used to match reservations.
type Room struct {
	ID          int64
	HotelID     int64
	RoomNumber  string
	Type        string
	Capacity    int
	Price       decimal.Decimal // per night
	Available   bool
	Description *string
}

// RoomAvailability pairs a room with the outcome of a date-range check.
type RoomAvailability struct {
	Room      Room
	Available bool
	Nights    int
	Total     decimal.Decimal
}
