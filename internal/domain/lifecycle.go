package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinNights = 1
	MaxNights = 30
)

const day = 24 * time.Hour

// ComputeNights counts the days between checkIn and checkOut, rounding a partial
// day up. It is exact for whole-day inputs and <= 0 when checkOut <= checkIn.
func ComputeNights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	n := d / day
	// integer division truncates toward zero, which is already the ceiling
	// for negative durations
	if d%day > 0 {
		n++
	}
	return int(n)
}

// ComputeTotalPrice is max(0, nights) * pricePerNight, floored at zero.
func ComputeTotalPrice(checkIn, checkOut time.Time, pricePerNight decimal.Decimal) decimal.Decimal {
	n := ComputeNights(checkIn, checkOut)
	if n <= 0 {
		return decimal.Zero
	}
	total := pricePerNight.Mul(decimal.NewFromInt(int64(n)))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

type EventKind string

const (
	EventCreate           EventKind = "create"
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventCancel           EventKind = "cancel"
	EventExpire           EventKind = "expire"
	EventComplete         EventKind = "complete"
)

// Event drives Transition. Amount and PaymentID are read only for
// EventPaymentSucceeded.
type Event struct {
	Kind      EventKind
	Amount    decimal.Decimal
	PaymentID string
}

// TransitionContext carries everything Transition needs besides the reservation.
// Room and Existing are read only by EventCreate.
type TransitionContext struct {
	Now      time.Time
	Actor    Actor
	Room     Room
	Existing []Reservation
	NewID    func() uuid.UUID
}

// Transition applies ev to r and returns the resulting reservation. r is taken by
// value and never modified; on error the zero Reservation is returned.
//
// For EventCreate, r is the draft built from the booking request: Status must be
// empty, and the result carries a fresh ID, the actor's user id, the computed
// total and PENDING.
func Transition(r Reservation, ev Event, tc TransitionContext) (Reservation, error) {
	now := tc.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	if ev.Kind == EventCreate {
		return create(r, tc, now)
	}
	if !r.Status.IsValid() {
		return Reservation{}, fmt.Errorf("%w: reservation has no lifecycle state", ErrInvalidTransition)
	}
	if r.Status.IsTerminal() {
		return Reservation{}, fmt.Errorf("%w: %s on %s reservation", ErrInvalidTransition, ev.Kind, r.Status)
	}

	next := r
	next.UpdatedAt = now
	switch ev.Kind {
	case EventPaymentSucceeded:
		if r.Status == StatusConfirmed {
			// replayed confirmation of the payment that already confirmed it
			if ev.PaymentID != "" && r.PaymentID != nil && *r.PaymentID == ev.PaymentID {
				return r, nil
			}
			return Reservation{}, fmt.Errorf("%w: reservation already confirmed", ErrInvalidTransition)
		}
		if !ev.Amount.Equal(r.TotalPrice) {
			return Reservation{}, fmt.Errorf("%w: paid %s, expected %s",
				ErrAmountMismatch, ev.Amount.StringFixed(2), r.TotalPrice.StringFixed(2))
		}
		next.Status = StatusConfirmed
		if ev.PaymentID != "" {
			pid := ev.PaymentID
			next.PaymentID = &pid
		}
	case EventPaymentFailed:
		if r.Status != StatusPending {
			return Reservation{}, fmt.Errorf("%w: payment failure on %s reservation", ErrInvalidTransition, r.Status)
		}
		// stays PENDING so the guest can retry; the sweeper expires it later
	case EventCancel:
		next.Status = StatusCancelled
	case EventExpire:
		if r.Status != StatusPending {
			return Reservation{}, fmt.Errorf("%w: only pending reservations expire", ErrInvalidTransition)
		}
		next.Status = StatusCancelled
	case EventComplete:
		if r.Status != StatusConfirmed {
			return Reservation{}, fmt.Errorf("%w: only confirmed reservations complete", ErrInvalidTransition)
		}
		if now.Before(r.CheckOut) {
			return Reservation{}, fmt.Errorf("%w: checkout %s has not passed",
				ErrInvalidTransition, r.CheckOut.Format(DateLayout))
		}
		next.Status = StatusCompleted
	default:
		return Reservation{}, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Kind)
	}

	if next.Status != r.Status && !r.Status.CanTransitionTo(next.Status) {
		return Reservation{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next.Status)
	}
	return next, nil
}

func create(draft Reservation, tc TransitionContext, now time.Time) (Reservation, error) {
	if draft.Status != "" {
		return Reservation{}, fmt.Errorf("%w: reservation already %s", ErrInvalidTransition, draft.Status)
	}
	if !tc.Actor.Known() {
		return Reservation{}, fmt.Errorf("%w: booking requires a user", ErrUnauthenticated)
	}

	stay := NewDateRange(draft.CheckIn, draft.CheckOut)
	if err := ValidateStay(stay, now); err != nil {
		return Reservation{}, err
	}
	if err := ValidateGuest(draft.Guest); err != nil {
		return Reservation{}, err
	}
	if draft.RoomID != tc.Room.ID || draft.HotelID != tc.Room.HotelID {
		return Reservation{}, fmt.Errorf("%w: room %d does not belong to hotel %d",
			ErrRoomUnavailable, draft.RoomID, draft.HotelID)
	}
	if err := CheckAvailability(tc.Room, stay, tc.Existing); err != nil {
		return Reservation{}, err
	}

	newID := tc.NewID
	if newID == nil {
		newID = uuid.New
	}
	out := draft
	out.ID = newID()
	out.UserID = tc.Actor.UserID
	out.CheckIn, out.CheckOut = stay.Start, stay.End
	out.Status = StatusPending
	out.TotalPrice = ComputeTotalPrice(stay.Start, stay.End, tc.Room.Price)
	out.PaymentID = nil
	out.CreatedAt, out.UpdatedAt = now, now
	return out, nil
}

// ValidateStay enforces the booking window: check-in today or later and
// between MinNights and MaxNights nights.
func ValidateStay(stay DateRange, now time.Time) error {
	if !stay.Valid() {
		return fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrInvalidRange, stay.End.Format(DateLayout), stay.Start.Format(DateLayout))
	}
	if stay.Start.Before(Day(now)) {
		return fmt.Errorf("%w: check-in %s is in the past", ErrInvalidRange, stay.Start.Format(DateLayout))
	}
	if n := stay.Nights(); n < MinNights || n > MaxNights {
		return fmt.Errorf("%w: %d nights, must be between %d and %d", ErrInvalidRange, n, MinNights, MaxNights)
	}
	return nil
}

func ValidateGuest(g Guest) error {
	var missing []string
	if strings.TrimSpace(g.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(g.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if e := strings.TrimSpace(g.Email); e == "" || !strings.Contains(e, "@") {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(g.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
