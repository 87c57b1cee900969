package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reservite/internal/domain"
)

type QueryService struct {
	rooms    domain.RoomCatalog
	store    domain.ReservationStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(rooms domain.RoomCatalog, store domain.ReservationStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{rooms: rooms, store: store, cache: c, cacheTTL: ttl}
}

func roomKey(hotelID, roomID int64) string { return fmt.Sprintf("room:%d:%d", hotelID, roomID) }
func roomsKey(hotelID int64) string        { return fmt.Sprintf("rooms:%d", hotelID) }

func (s *QueryService) GetRoom(ctx context.Context, hotelID, roomID int64) (domain.Room, error) {
	key := roomKey(hotelID, roomID)
	var r domain.Room
	if ok, _ := s.cache.Get(ctx, key, &r); ok {
		return r, nil
	}
	r, err := s.rooms.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
	return r, nil
}

func (s *QueryService) ListRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	key := roomsKey(hotelID)
	var out []domain.Room
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.rooms.ListRooms(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	// copy so callers cannot mutate the catalog's backing array
	out = make([]domain.Room, len(rs))
	copy(out, rs)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Quote reports whether roomID can be booked for stay and what it would cost.
// Price and nights are returned even when the room is taken.
func (s *QueryService) Quote(ctx context.Context, hotelID, roomID int64, stay domain.DateRange) (domain.RoomAvailability, error) {
	if !stay.Valid() {
		return domain.RoomAvailability{}, fmt.Errorf("%w: check-out must be after check-in", domain.ErrInvalidRange)
	}
	room, err := s.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return domain.RoomAvailability{}, err
	}
	existing, err := s.store.ListActiveByRoom(ctx, hotelID, roomID)
	if err != nil {
		return domain.RoomAvailability{}, err
	}
	return quote(room, stay, existing), nil
}

// ListRoomsWithAvailability lists the hotel's rooms. With a stay, each room is
// checked against the hotel's active reservations; without one, only the static
// flag is reported.
func (s *QueryService) ListRoomsWithAvailability(ctx context.Context, hotelID int64, stay *domain.DateRange) ([]domain.RoomAvailability, error) {
	rooms, err := s.ListRooms(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomAvailability, 0, len(rooms))
	if stay == nil {
		for _, r := range rooms {
			out = append(out, domain.RoomAvailability{Room: r, Available: r.Available})
		}
		return out, nil
	}
	if !stay.Valid() {
		return nil, fmt.Errorf("%w: check-out must be after check-in", domain.ErrInvalidRange)
	}
	existing, err := s.store.ListActiveByHotel(ctx, hotelID, *stay)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		out = append(out, quote(r, *stay, existing))
	}
	return out, nil
}

func quote(room domain.Room, stay domain.DateRange, existing []domain.Reservation) domain.RoomAvailability {
	return domain.RoomAvailability{
		Room:      room,
		Available: domain.IsAvailable(room, stay, existing),
		Nights:    stay.Nights(),
		Total:     domain.ComputeTotalPrice(stay.Start, stay.End, room.Price),
	}
}

func (s *QueryService) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return s.store.Get(ctx, id)
}

// ListReservations returns the newest reservations across all users, capped
// at maxListLimit.
func (s *QueryService) ListReservations(ctx context.Context, limit int) ([]domain.Reservation, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListRecent(ctx, limit)
}

const maxListLimit = 500

func (s *QueryService) ListReservationsByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.store.ListByUser(ctx, userID)
}
