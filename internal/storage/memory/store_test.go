package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservite/internal/domain"
	"reservite/internal/storage/memory"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func pending(hotel, room int64, in, out time.Time) domain.Reservation {
	return domain.Reservation{
		ID: uuid.New(), HotelID: hotel, RoomID: room, UserID: 7,
		CheckIn: in, CheckOut: out, Status: domain.StatusPending,
		TotalPrice: decimal.NewFromInt(100), CreatedAt: time.Now().UTC(),
	}
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	require.NoError(t, memory.Seed(context.Background(), s))
	return s
}

func TestRooms(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	rooms, err := s.ListRooms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "101", rooms[0].RoomNumber)

	_, err = s.GetRoom(ctx, 1, 4)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "room 4 belongs to hotel 2")

	_, err = s.ListRooms(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAttemptCreate_RejectsOverlapAllowsTouching(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	_, err := s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 1), date(2024, 6, 4)))
	require.NoError(t, err)

	_, err = s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 3), date(2024, 6, 5)))
	assert.True(t, errors.Is(err, domain.ErrPersistenceConflict))

	_, err = s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 4), date(2024, 6, 6)))
	assert.NoError(t, err, "touching ranges do not overlap")

	_, err = s.AttemptCreate(ctx, pending(1, 2, date(2024, 6, 1), date(2024, 6, 4)))
	assert.NoError(t, err, "other room is independent")

	_, err = s.AttemptCreate(ctx, pending(1, 42, date(2024, 6, 1), date(2024, 6, 4)))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAttemptCreate_ClosedRoom(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	_, err := s.AttemptCreate(ctx, pending(2, 5, date(2024, 6, 1), date(2024, 6, 4)))
	assert.True(t, errors.Is(err, domain.ErrRoomUnavailable), "room 5 is seeded closed: %v", err)

	room, err := s.GetRoom(ctx, 1, 1)
	require.NoError(t, err)
	room.Available = false
	require.NoError(t, s.UpsertRooms(ctx, []domain.Room{room}))

	_, err = s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 1), date(2024, 6, 4)))
	assert.True(t, errors.Is(err, domain.ErrRoomUnavailable), "got %v", err)
	open, err := s.ListActiveByRoom(ctx, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestAttemptCreate_CancelledDoesNotBlock(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	r, err := s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 1), date(2024, 6, 4)))
	require.NoError(t, err)
	r.Status = domain.StatusCancelled
	require.NoError(t, s.UpdateStatus(ctx, r, domain.StatusPending))

	_, err = s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 2), date(2024, 6, 3)))
	assert.NoError(t, err)
}

func TestAttemptCreate_ConcurrentExactlyOneWins(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AttemptCreate(ctx, pending(1, 3, date(2024, 7, 1), date(2024, 7, 3)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrPersistenceConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestUpdateStatus_CompareAndSet(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	r, err := s.AttemptCreate(ctx, pending(1, 1, date(2024, 6, 1), date(2024, 6, 4)))
	require.NoError(t, err)

	confirmed := r
	confirmed.Status = domain.StatusConfirmed
	pid := "PAY-1"
	confirmed.PaymentID = &pid
	require.NoError(t, s.UpdateStatus(ctx, confirmed, domain.StatusPending))

	expired := r
	expired.Status = domain.StatusCancelled
	err = s.UpdateStatus(ctx, expired, domain.StatusPending)
	assert.True(t, errors.Is(err, domain.ErrPersistenceConflict), "stale from status must lose")

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "PAY-1", *got.PaymentID)

	err = s.UpdateStatus(ctx, domain.Reservation{ID: uuid.New()}, domain.StatusPending)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListDue(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	now := date(2024, 6, 10)

	over := pending(1, 1, date(2024, 6, 1), date(2024, 6, 4))
	over.Status = domain.StatusConfirmed
	stale := pending(1, 2, date(2024, 6, 20), date(2024, 6, 22))
	stale.CreatedAt = now.Add(-2 * time.Hour)
	fresh := pending(1, 3, date(2024, 6, 20), date(2024, 6, 22))
	fresh.CreatedAt = now.Add(-time.Minute)
	upcoming := pending(2, 4, date(2024, 6, 12), date(2024, 6, 14))
	upcoming.Status = domain.StatusConfirmed

	for _, r := range []domain.Reservation{over, stale, fresh, upcoming} {
		_, err := s.AttemptCreate(ctx, r)
		require.NoError(t, err)
	}

	due, err := s.ListDue(ctx, now, now.Add(-30*time.Minute))
	require.NoError(t, err)
	ids := map[uuid.UUID]bool{}
	for _, r := range due {
		ids[r.ID] = true
	}
	assert.Len(t, due, 2)
	assert.True(t, ids[over.ID])
	assert.True(t, ids[stale.ID])
}

func TestListActiveByHotelAndUser(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	a := pending(1, 1, date(2024, 6, 1), date(2024, 6, 4))
	b := pending(1, 2, date(2024, 8, 1), date(2024, 8, 4))
	b.UserID = 8
	for _, r := range []domain.Reservation{a, b} {
		_, err := s.AttemptCreate(ctx, r)
		require.NoError(t, err)
	}

	june, err := s.ListActiveByHotel(ctx, 1, domain.NewDateRange(date(2024, 6, 1), date(2024, 7, 1)))
	require.NoError(t, err)
	require.Len(t, june, 1)
	assert.Equal(t, a.ID, june[0].ID)

	all, err := s.ListActiveByHotel(ctx, 1, domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.ListByUser(ctx, 8)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)
}

func TestListRecent(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := pending(1, 1, date(2024, 6, 1+3*i), date(2024, 6, 3+3*i))
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := s.AttemptCreate(ctx, r)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	got, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID, "newest first")
	assert.Equal(t, ids[1], got[1].ID)

	all, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLogMiss(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.LogMiss(context.Background(), 3, 404, "not found"))
	require.NoError(t, s.LogMiss(context.Background(), 3, 403, "inactive"))
	m := s.Misses()
	require.Len(t, m, 1)
	assert.Equal(t, 403, m[0].Status)
}
