// Package memory is a process-local RoomCatalog and ReservationStore, used for
// local runs (STORE=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reservite/internal/domain"
)

type roomKey struct{ hotelID, roomID int64 }

// Miss records a sync failure for one hotel.
type Miss struct {
	HotelID int64
	Status  int
	Reason  string
	SeenAt  time.Time
}

type Store struct {
	mu           sync.RWMutex
	rooms        map[roomKey]domain.Room
	reservations map[uuid.UUID]domain.Reservation
	misses       map[int64]Miss
}

func New() *Store {
	return &Store{
		rooms:        map[roomKey]domain.Room{},
		reservations: map[uuid.UUID]domain.Reservation{},
		misses:       map[int64]Miss{},
	}
}

/* ---------- rooms ---------- */

func (s *Store) UpsertRooms(ctx context.Context, rooms []domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rooms {
		s.rooms[roomKey{r.HotelID, r.ID}] = r
	}
	return nil
}

func (s *Store) LogMiss(ctx context.Context, hotelID int64, status int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses[hotelID] = Miss{HotelID: hotelID, Status: status, Reason: reason, SeenAt: time.Now().UTC()}
	return nil
}

func (s *Store) Misses() []Miss {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Miss, 0, len(s.misses))
	for _, m := range s.misses {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HotelID < out[j].HotelID })
	return out
}

func (s *Store) GetRoom(ctx context.Context, hotelID, roomID int64) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomKey{hotelID, roomID}]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: room %d in hotel %d", domain.ErrNotFound, roomID, hotelID)
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Room
	for k, r := range s.rooms {
		if k.hotelID == hotelID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: hotel %d has no rooms", domain.ErrNotFound, hotelID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

/* ---------- reservations ---------- */

func (s *Store) AttemptCreate(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomKey{r.HotelID, r.RoomID}]
	if !ok {
		return domain.Reservation{}, fmt.Errorf("%w: room %d in hotel %d", domain.ErrNotFound, r.RoomID, r.HotelID)
	}
	if !room.Available {
		return domain.Reservation{}, fmt.Errorf("%w: room %d is closed for booking", domain.ErrRoomUnavailable, r.RoomID)
	}
	if _, dup := s.reservations[r.ID]; dup {
		return domain.Reservation{}, fmt.Errorf("%w: reservation %s exists", domain.ErrPersistenceConflict, r.ID)
	}
	want := r.Range()
	for _, e := range s.reservations {
		if e.HotelID == r.HotelID && e.RoomID == r.RoomID && e.Status.Blocks() && want.Overlaps(e.Range()) {
			return domain.Reservation{}, fmt.Errorf("%w: room %d already held %s by %s",
				domain.ErrPersistenceConflict, r.RoomID, e.Range(), e.ID)
		}
	}
	s.reservations[r.ID] = r
	return r, nil
}

func (s *Store) UpdateStatus(ctx context.Context, r domain.Reservation, from domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reservations[r.ID]
	if !ok {
		return fmt.Errorf("%w: reservation %s", domain.ErrNotFound, r.ID)
	}
	if cur.Status != from {
		return fmt.Errorf("%w: reservation %s is %s, expected %s", domain.ErrPersistenceConflict, r.ID, cur.Status, from)
	}
	cur.Status = r.Status
	cur.PaymentID = r.PaymentID
	cur.UpdatedAt = r.UpdatedAt
	s.reservations[r.ID] = cur
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, id)
	}
	return r, nil
}

func (s *Store) ListActiveByRoom(ctx context.Context, hotelID, roomID int64) ([]domain.Reservation, error) {
	return s.filter(func(r domain.Reservation) bool {
		return r.HotelID == hotelID && r.RoomID == roomID && r.Status.Blocks()
	}), nil
}

// ListActiveByHotel returns every blocking reservation of the hotel; an invalid
// within range disables the date filter.
func (s *Store) ListActiveByHotel(ctx context.Context, hotelID int64, within domain.DateRange) ([]domain.Reservation, error) {
	return s.filter(func(r domain.Reservation) bool {
		if r.HotelID != hotelID || !r.Status.Blocks() {
			return false
		}
		return !within.Valid() || within.Overlaps(r.Range())
	}), nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	out := s.filter(func(r domain.Reservation) bool { return r.UserID == userID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.Reservation, error) {
	out := s.filter(func(domain.Reservation) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListDue(ctx context.Context, today, pendingBefore time.Time) ([]domain.Reservation, error) {
	return s.filter(func(r domain.Reservation) bool {
		switch r.Status {
		case domain.StatusConfirmed:
			return !r.CheckOut.After(today)
		case domain.StatusPending:
			return r.CreatedAt.Before(pendingBefore)
		}
		return false
	}), nil
}

func (s *Store) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out
}
