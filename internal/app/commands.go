package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"reservite/internal/domain"
)

// RoomSyncService copies a hotel's rooms from the hotel service into the local
// catalog.
type RoomSyncService struct {
	dir     domain.HotelDirectory
	catalog domain.RoomCatalog
	cache   domain.Cache
}

func NewRoomSyncService(d domain.HotelDirectory, c domain.RoomCatalog, cache domain.Cache) *RoomSyncService {
	return &RoomSyncService{dir: d, catalog: c, cache: cache}
}

// SyncHotel returns the number of rooms upserted. A hotel the service does not
// know (404) or refuses to show (401/403) is recorded as a miss, its cached rooms
// are evicted and the sync stops without error.
func (s *RoomSyncService) SyncHotel(ctx context.Context, hotelID int64) (int, error) {
	payloads, err := s.dir.GetRooms(ctx, hotelID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.catalog.LogMiss(ctx, hotelID, 404, "not found")
			s.invalidateHotel(ctx, hotelID, nil)
			return 0, nil
		case errors.Is(err, domain.ErrAccessDenied):
			_ = s.catalog.LogMiss(ctx, hotelID, 403, "inactive")
			s.invalidateHotel(ctx, hotelID, nil)
			return 0, nil
		}
		// network/5xx/JSON: surface it
		return 0, err
	}

	rooms, rejected := mapRooms(hotelID, payloads)
	if len(rejected) > 0 {
		_ = s.catalog.LogMiss(ctx, hotelID, 422, truncate("rooms: "+strings.Join(rejected, "; "), 255))
	}
	if len(rooms) > 0 {
		if err := s.catalog.UpsertRooms(ctx, rooms); err != nil {
			return 0, fmt.Errorf("upsert rooms failed for hotel %d: %w", hotelID, err)
		}
	}
	// even with zero rooms, drop any stale cached listing
	s.invalidateHotel(ctx, hotelID, rooms)

	log.Info().Int64("hotel", hotelID).Int("rooms", len(rooms)).Int("rejected", len(rejected)).Msg("rooms synced")
	return len(rooms), nil
}

func (s *RoomSyncService) invalidateHotel(ctx context.Context, hotelID int64, rooms []domain.Room) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, roomsKey(hotelID))
	for _, r := range rooms {
		_ = s.cache.Del(ctx, roomKey(hotelID, r.ID))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
