package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"reservite/internal/domain"
)

// MySQL server error numbers that mean "another writer got there first".
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// mapErr turns lock and uniqueness failures into ErrPersistenceConflict.
func mapErr(err error) error {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry, errLockWaitTimeout, errDeadlock:
			return fmt.Errorf("%w: %s", domain.ErrPersistenceConflict, me.Message)
		}
	}
	return err
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

/* ---------- rooms ---------- */

func (r *Repo) UpsertRooms(ctx context.Context, rooms []domain.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertRoomSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rm := range rooms {
		if _, err := stmt.ExecContext(ctx,
			rm.HotelID,
			rm.ID,
			rm.RoomNumber,
			rm.Type,
			rm.Capacity,
			rm.Price,
			rm.Available,
			valStr(rm.Description),
		); err != nil {
			return fmt.Errorf("upsert room %d/%d: %w", rm.HotelID, rm.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LogMiss(ctx context.Context, hotelID int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, hotelID, status, reason)
	return err
}

type scanner interface{ Scan(dest ...any) error }

func scanRoom(s scanner) (domain.Room, error) {
	var rm domain.Room
	var desc sql.NullString
	if err := s.Scan(
		&rm.HotelID,
		&rm.ID,
		&rm.RoomNumber,
		&rm.Type,
		&rm.Capacity,
		&rm.Price,
		&rm.Available,
		&desc,
	); err != nil {
		return domain.Room{}, err
	}
	rm.Description = strPtr(desc)
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, hotelID, roomID int64) (domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, getRoomSQL, hotelID, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, fmt.Errorf("%w: room %d in hotel %d", domain.ErrNotFound, roomID, hotelID)
	}
	return rm, err
}

func (r *Repo) ListRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, listRoomsSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: hotel %d has no rooms", domain.ErrNotFound, hotelID)
	}
	return out, nil
}

/* ---------- reservations ---------- */

func (r *Repo) AttemptCreate(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Reservation{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var available bool
	if err := tx.QueryRowContext(ctx, lockRoomSQL, res.HotelID, res.RoomID).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, fmt.Errorf("%w: room %d in hotel %d", domain.ErrNotFound, res.RoomID, res.HotelID)
		}
		return domain.Reservation{}, mapErr(err)
	}
	// a sync may have closed the room after the caller's pre-check
	if !available {
		return domain.Reservation{}, fmt.Errorf("%w: room %d is closed for booking", domain.ErrRoomUnavailable, res.RoomID)
	}

	var overlapping int
	if err := tx.QueryRowContext(ctx, countOverlapSQL,
		res.HotelID, res.RoomID, res.CheckOut, res.CheckIn,
	).Scan(&overlapping); err != nil {
		return domain.Reservation{}, mapErr(err)
	}
	if overlapping > 0 {
		return domain.Reservation{}, fmt.Errorf("%w: room %d already held for %s",
			domain.ErrPersistenceConflict, res.RoomID, res.Range())
	}

	if _, err := tx.ExecContext(ctx, insertReservationSQL,
		res.ID,
		res.HotelID,
		res.RoomID,
		res.UserID,
		res.CheckIn,
		res.CheckOut,
		string(res.Status),
		res.TotalPrice,
		res.Guest.FirstName,
		res.Guest.LastName,
		res.Guest.Email,
		res.Guest.Phone,
		valStr(res.Guest.SpecialRequests),
		valStr(res.PaymentID),
		res.CreatedAt,
		res.UpdatedAt,
	); err != nil {
		return domain.Reservation{}, mapErr(err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Reservation{}, mapErr(err)
	}
	return res, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, res domain.Reservation, from domain.Status) error {
	out, err := r.db.ExecContext(ctx, updateStatusSQL,
		string(res.Status), valStr(res.PaymentID), res.UpdatedAt, res.ID, string(from))
	if err != nil {
		return mapErr(err)
	}
	if n, err := out.RowsAffected(); err != nil || n == 1 {
		return err
	}

	var cur string
	if err := r.db.QueryRowContext(ctx, statusSQL, res.ID).Scan(&cur); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: reservation %s", domain.ErrNotFound, res.ID)
		}
		return err
	}
	return fmt.Errorf("%w: reservation %s is %s, expected %s", domain.ErrPersistenceConflict, res.ID, cur, from)
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var res domain.Reservation
	var status string
	var special, paymentID sql.NullString
	if err := s.Scan(
		&res.ID,
		&res.HotelID,
		&res.RoomID,
		&res.UserID,
		&res.CheckIn,
		&res.CheckOut,
		&status,
		&res.TotalPrice,
		&res.Guest.FirstName,
		&res.Guest.LastName,
		&res.Guest.Email,
		&res.Guest.Phone,
		&special,
		&paymentID,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return domain.Reservation{}, err
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Status = st
	res.Guest.SpecialRequests = strPtr(special)
	res.PaymentID = strPtr(paymentID)
	res.CheckIn, res.CheckOut = domain.Day(res.CheckIn), domain.Day(res.CheckOut)
	res.CreatedAt, res.UpdatedAt = res.CreatedAt.UTC(), res.UpdatedAt.UTC()
	return res, nil
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, getReservationSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, id)
	}
	return res, err
}

func (r *Repo) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) ListActiveByRoom(ctx context.Context, hotelID, roomID int64) ([]domain.Reservation, error) {
	return r.list(ctx, listActiveByRoomSQL, hotelID, roomID)
}

// ListActiveByHotel filters by date only when within is a valid range.
func (r *Repo) ListActiveByHotel(ctx context.Context, hotelID int64, within domain.DateRange) ([]domain.Reservation, error) {
	if !within.Valid() {
		return r.list(ctx, listActiveByHotelSQL, hotelID)
	}
	return r.list(ctx, listActiveByHotelWithinSQL, hotelID, within.End, within.Start)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return r.list(ctx, listByUserSQL, userID)
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]domain.Reservation, error) {
	return r.list(ctx, listRecentSQL, limit)
}

func (r *Repo) ListDue(ctx context.Context, today, pendingBefore time.Time) ([]domain.Reservation, error) {
	return r.list(ctx, listDueSQL, today, pendingBefore)
}
