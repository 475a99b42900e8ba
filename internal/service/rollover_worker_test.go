package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkerFixture() (*RolloverWorker, *rolloverFixture) {
	f := newRolloverFixture()
	worker := NewRolloverWorker(f.years, f.svc, zerolog.Nop(), RolloverWorkerConfig{Interval: time.Minute})
	return worker, f
}

func TestRolloverWorker_Sweep_AppliesDueRollover(t *testing.T) {
	worker, f := newWorkerFixture()
	year := f.seedApprovedYear()
	past := time.Now().UTC().Add(-time.Hour)
	year.Rollover = domain.RolloverSettings{
		RolloverPercentage: decimal.NewFromInt(30),
		AutoRollover:       true,
		AutoRolloverDate:   &past,
	}
	d := f.seedDistribution(year.ID, 1, 100000)

	worker.sweep()

	updated, err := f.distribs.GetByID(1, d.ID)
	require.NoError(t, err)
	assert.True(t, updated.Rollover.IsRolledOver)
	assert.Equal(t, "30000", updated.Rollover.RolloverAmount.String())

	// The schedule is consumed so the next sweep finds nothing
	refreshed, err := f.years.GetByID(1, year.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.Rollover.AutoRollover)

	due, err := f.years.GetDueAutoRollover(time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRolloverWorker_Sweep_SkipsFutureSchedules(t *testing.T) {
	worker, f := newWorkerFixture()
	year := f.seedApprovedYear()
	future := time.Now().UTC().Add(time.Hour)
	year.Rollover = domain.RolloverSettings{
		RolloverPercentage: decimal.NewFromInt(30),
		AutoRollover:       true,
		AutoRolloverDate:   &future,
	}
	d := f.seedDistribution(year.ID, 1, 100000)

	worker.sweep()

	untouched, err := f.distribs.GetByID(1, d.ID)
	require.NoError(t, err)
	assert.False(t, untouched.Rollover.IsRolledOver)
}

func TestRolloverWorker_Sweep_DisarmsStaleSchedule(t *testing.T) {
	worker, f := newWorkerFixture()
	year := f.seedApprovedYear()
	past := time.Now().UTC().Add(-time.Hour)
	year.Rollover = domain.RolloverSettings{
		RolloverPercentage: decimal.NewFromInt(30),
		AutoRollover:       true,
		AutoRolloverDate:   &past,
	}
	// No distributions to roll over: the schedule gets disarmed instead of
	// firing on every sweep forever.

	worker.sweep()

	refreshed, err := f.years.GetByID(1, year.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.Rollover.AutoRollover)
	assert.Nil(t, refreshed.Rollover.AutoRolloverDate)
}

func TestRolloverWorker_StartStop(t *testing.T) {
	worker, _ := newWorkerFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	worker.Stop()
}
