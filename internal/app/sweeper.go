package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"reservite/internal/domain"
)

// Sweeper moves reservations along on the clock: CONFIRMED ones whose checkout
// passed become COMPLETED and PENDING ones older than pendingTTL are cancelled.
type Sweeper struct {
	bookings   *BookingService
	store      domain.ReservationStore
	pendingTTL time.Duration
	workers    int
}

func NewSweeper(b *BookingService, store domain.ReservationStore, pendingTTL time.Duration, workers int) *Sweeper {
	if workers <= 0 {
		workers = 4
	}
	return &Sweeper{bookings: b, store: store, pendingTTL: pendingTTL, workers: workers}
}

type SweepResult struct {
	Completed int
	Expired   int
	Skipped   int // moved by someone else meanwhile
	Failed    int
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.bookings.now().UTC()
	due, err := s.store.ListDue(ctx, domain.Day(now), now.Add(-s.pendingTTL))
	if err != nil {
		return SweepResult{}, err
	}

	var completed, expired, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.workers)
	tc := s.bookings.transitionContext(domain.Actor{})
	for _, r := range due {
		r := r
		g.Go(func() error {
			kind := domain.EventExpire
			if r.Status == domain.StatusConfirmed {
				kind = domain.EventComplete
			}
			_, err := s.bookings.apply(ctx, r, domain.Event{Kind: kind}, tc)
			switch {
			case err == nil && kind == domain.EventComplete:
				completed.Add(1)
			case err == nil:
				expired.Add(1)
			case errors.Is(err, domain.ErrPersistenceConflict), errors.Is(err, domain.ErrInvalidTransition):
				skipped.Add(1)
			default:
				failed.Add(1)
				log.Error().Err(err).Str("reservation", r.ID.String()).Str("event", string(kind)).Msg("sweep failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	res := SweepResult{
		Completed: int(completed.Load()),
		Expired:   int(expired.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	log.Info().Int("due", len(due)).Int("completed", res.Completed).Int("expired", res.Expired).
		Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("sweep done")
	return res, nil
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("sweep failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
