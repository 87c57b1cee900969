package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservite/internal/app"
	"reservite/internal/domain"
)

func TestSweep_CompletesAndExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stayed := h.create(t, day(2024, 6, 1), day(2024, 6, 4))
	_, err := h.bookings.Pay(ctx, alice, stayed.ID, decimal.NewFromInt(300))
	require.NoError(t, err)
	abandoned := h.create(t, day(2024, 6, 10), day(2024, 6, 12))

	h.now = time.Date(2024, 6, 5, 9, 50, 0, 0, time.UTC)
	fresh := h.create(t, day(2024, 6, 20), day(2024, 6, 22))
	h.now = time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

	sw := app.NewSweeper(h.bookings, h.store, 30*time.Minute, 2)
	res, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, app.SweepResult{Completed: 1, Expired: 1}, res)

	assert.Equal(t, domain.StatusCompleted, h.status(t, stayed.ID))
	assert.Equal(t, domain.StatusCancelled, h.status(t, abandoned.ID))
	assert.Equal(t, domain.StatusPending, h.status(t, fresh.ID))

	// nothing left to do
	res, err = sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, app.SweepResult{}, res)
}

func TestSweep_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.NewSweeper(h.bookings, h.store, time.Minute, 1).Run(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
