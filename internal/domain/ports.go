package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoomCatalog is the local copy of the hotel service's rooms.
type RoomCatalog interface {
	// Write paths
	UpsertRooms(ctx context.Context, rooms []Room) error
	LogMiss(ctx context.Context, hotelID int64, status int, reason string) error

	// Read paths
	GetRoom(ctx context.Context, hotelID, roomID int64) (Room, error)
	ListRooms(ctx context.Context, hotelID int64) ([]Room, error)
}

// ReservationStore owns reservation persistence.
type ReservationStore interface {
	// AttemptCreate re-checks overlap and inserts in one atomic step. A lost
	// race or a conflicting reservation fails with ErrPersistenceConflict.
	AttemptCreate(ctx context.Context, r Reservation) (Reservation, error)

	// UpdateStatus persists r if the stored status still equals from.
	// Returns ErrNotFound or ErrPersistenceConflict otherwise.
	UpdateStatus(ctx context.Context, r Reservation, from Status) error

	Get(ctx context.Context, id uuid.UUID) (Reservation, error)
	ListActiveByRoom(ctx context.Context, hotelID, roomID int64) ([]Reservation, error)
	ListActiveByHotel(ctx context.Context, hotelID int64, within DateRange) ([]Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]Reservation, error)
	// ListRecent returns up to limit reservations, newest first.
	ListRecent(ctx context.Context, limit int) ([]Reservation, error)

	// ListDue returns CONFIRMED reservations with check-out on or before today
	// and PENDING reservations created before pendingBefore.
	ListDue(ctx context.Context, today, pendingBefore time.Time) ([]Reservation, error)
}

// HotelDirectory fetches raw room payloads from the hotel service.
type HotelDirectory interface {
	GetRooms(ctx context.Context, hotelID int64) ([]map[string]any, error)
}

type PaymentGateway interface {
	Charge(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

type Notifier interface {
	ReservationConfirmed(ctx context.Context, r Reservation, room Room) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
