package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"reservite/internal/adapters/observability"
	"reservite/internal/domain"
)

// BookingService drives reservations through their lifecycle. Every state change
// goes through domain.Transition and is persisted with a compare-and-set on the
// prior status.
type BookingService struct {
	rooms  *QueryService
	store  domain.ReservationStore
	pay    domain.PaymentGateway
	notify domain.Notifier
	now    func() time.Time
	newID  func() uuid.UUID
}

func NewBookingService(q *QueryService, store domain.ReservationStore, pay domain.PaymentGateway, n domain.Notifier) *BookingService {
	return &BookingService{rooms: q, store: store, pay: pay, notify: n, now: time.Now, newID: uuid.New}
}

// WithClock replaces the wall clock, for tests and replays.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

type CreateReservation struct {
	HotelID int64
	RoomID  int64
	Stay    domain.DateRange
	Guest   domain.Guest
}

// PaymentOutcome is the result of Pay. ApprovalURL is set when the guest still
// has to approve the payment with the provider; the reservation is then PENDING.
type PaymentOutcome struct {
	Reservation domain.Reservation
	PaymentID   string
	ApprovalURL string
}

func (s *BookingService) transitionContext(actor domain.Actor) domain.TransitionContext {
	return domain.TransitionContext{Now: s.now(), Actor: actor, NewID: s.newID}
}

// Create pre-checks availability against the room's active reservations and
// then asks the store to insert atomically. Losing a race to another booking
// surfaces as domain.ErrPersistenceConflict.
func (s *BookingService) Create(ctx context.Context, actor domain.Actor, req CreateReservation) (domain.Reservation, error) {
	room, err := s.rooms.GetRoom(ctx, req.HotelID, req.RoomID)
	if err != nil {
		return domain.Reservation{}, err
	}
	existing, err := s.store.ListActiveByRoom(ctx, req.HotelID, req.RoomID)
	if err != nil {
		return domain.Reservation{}, err
	}

	tc := s.transitionContext(actor)
	tc.Room = room
	tc.Existing = existing
	draft := domain.Reservation{
		HotelID:  req.HotelID,
		RoomID:   req.RoomID,
		CheckIn:  req.Stay.Start,
		CheckOut: req.Stay.End,
		Guest:    req.Guest,
	}
	r, err := domain.Transition(draft, domain.Event{Kind: domain.EventCreate}, tc)
	if err != nil {
		observability.ObserveRejection("precheck", err)
		return domain.Reservation{}, err
	}

	saved, err := s.store.AttemptCreate(ctx, r)
	if err != nil {
		observability.ObserveRejection("persist", err)
		log.Warn().Err(err).Int64("hotel", r.HotelID).Int64("room", r.RoomID).
			Str("stay", r.Range().String()).Msg("reservation insert rejected")
		return domain.Reservation{}, err
	}
	observability.ObserveTransition(string(domain.EventCreate), string(saved.Status))
	log.Info().Str("reservation", saved.ID.String()).Int64("user", saved.UserID).
		Int64("hotel", saved.HotelID).Int64("room", saved.RoomID).
		Str("stay", saved.Range().String()).Str("total", saved.TotalPrice.StringFixed(2)).
		Msg("reservation created")
	return saved, nil
}

// Pay charges amount for a PENDING reservation. The amount is checked before
// the payment service is called, so a mismatch never charges the guest. Any
// failure, including a timeout, leaves the reservation PENDING.
func (s *BookingService) Pay(ctx context.Context, actor domain.Actor, id uuid.UUID, amount decimal.Decimal) (PaymentOutcome, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return PaymentOutcome{}, err
	}
	tc := s.transitionContext(actor)
	if _, err := domain.Transition(r, domain.Event{Kind: domain.EventPaymentSucceeded, Amount: amount}, tc); err != nil {
		observability.ObserveRejection("payment", err)
		return PaymentOutcome{Reservation: r}, err
	}

	res, err := s.pay.Charge(ctx, domain.PaymentRequest{ReservationID: r.ID, Amount: amount})
	if err != nil {
		s.paymentFailed(r, tc, err)
		return PaymentOutcome{Reservation: r}, fmt.Errorf("charge reservation %s: %w", r.ID, err)
	}

	switch {
	case res.NeedsApproval():
		log.Info().Str("reservation", r.ID.String()).Str("payment", res.ID).Msg("payment awaiting approval")
		return PaymentOutcome{Reservation: r, PaymentID: res.ID, ApprovalURL: res.ApprovalURL}, nil
	case res.Succeeded():
		next, err := s.apply(ctx, r, domain.Event{Kind: domain.EventPaymentSucceeded, Amount: amount, PaymentID: res.ID}, tc)
		if err != nil {
			// charged but not confirmed; the confirm callback can still settle it
			log.Error().Err(err).Str("reservation", r.ID.String()).Str("payment", res.ID).Msg("confirm after charge failed")
			return PaymentOutcome{Reservation: r, PaymentID: res.ID}, err
		}
		return PaymentOutcome{Reservation: next, PaymentID: res.ID}, nil
	case res.Status == domain.PaymentFailed:
		err := fmt.Errorf("%w: payment %s failed", domain.ErrPaymentDeclined, res.ID)
		s.paymentFailed(r, tc, err)
		return PaymentOutcome{Reservation: r, PaymentID: res.ID}, err
	default:
		log.Info().Str("reservation", r.ID.String()).Str("payment", res.ID).Str("status", res.Status).Msg("payment in progress")
		return PaymentOutcome{Reservation: r, PaymentID: res.ID}, nil
	}
}

func (s *BookingService) paymentFailed(r domain.Reservation, tc domain.TransitionContext, cause error) {
	observability.ObserveRejection("payment", cause)
	next, err := domain.Transition(r, domain.Event{Kind: domain.EventPaymentFailed}, tc)
	if err != nil {
		return
	}
	observability.ObserveTransition(string(domain.EventPaymentFailed), string(next.Status))
	ev := log.Warn().Err(cause).Str("reservation", r.ID.String())
	if errors.Is(cause, context.DeadlineExceeded) {
		ev = ev.Bool("timeout", true)
	}
	ev.Msg("payment failed, reservation stays pending")
}

// ConfirmPayment settles a reservation from the payment provider's callback.
// Replaying the callback with the payment id that confirmed it is a no-op.
func (s *BookingService) ConfirmPayment(ctx context.Context, actor domain.Actor, id uuid.UUID, amount decimal.Decimal, paymentID string) (domain.Reservation, error) {
	if paymentID == "" {
		return domain.Reservation{}, fmt.Errorf("%w: paymentId", domain.ErrMissingField)
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return s.apply(ctx, r, domain.Event{Kind: domain.EventPaymentSucceeded, Amount: amount, PaymentID: paymentID}, s.transitionContext(actor))
}

func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.Reservation, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	return s.apply(ctx, r, domain.Event{Kind: domain.EventCancel}, s.transitionContext(actor))
}

// apply runs ev through the state machine and persists the result if the status
// changed.
func (s *BookingService) apply(ctx context.Context, r domain.Reservation, ev domain.Event, tc domain.TransitionContext) (domain.Reservation, error) {
	next, err := domain.Transition(r, ev, tc)
	if err != nil {
		observability.ObserveRejection("transition", err)
		return domain.Reservation{}, err
	}
	if next.Status == r.Status {
		return next, nil
	}
	if err := s.store.UpdateStatus(ctx, next, r.Status); err != nil {
		observability.ObserveRejection("persist", err)
		return domain.Reservation{}, err
	}
	observability.ObserveTransition(string(ev.Kind), string(next.Status))
	log.Info().Str("reservation", next.ID.String()).Int64("actor", tc.Actor.UserID).
		Str("event", string(ev.Kind)).Str("from", string(r.Status)).Str("to", string(next.Status)).
		Msg("reservation transition")

	if next.Status == domain.StatusConfirmed {
		s.notifyConfirmed(ctx, next)
	}
	return next, nil
}

// notifyConfirmed is best effort; a failed email never undoes a confirmation.
func (s *BookingService) notifyConfirmed(ctx context.Context, r domain.Reservation) {
	if s.notify == nil {
		return
	}
	room, err := s.rooms.GetRoom(ctx, r.HotelID, r.RoomID)
	if err != nil {
		log.Warn().Err(err).Str("reservation", r.ID.String()).Msg("confirmation email skipped")
		return
	}
	if err := s.notify.ReservationConfirmed(ctx, r, room); err != nil {
		log.Warn().Err(err).Str("reservation", r.ID.String()).Msg("confirmation email failed")
	}
}
