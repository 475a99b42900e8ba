package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/saham-app/saham-backend/internal/domain"
)

// RolloverWorker is a background worker that applies scheduled auto-rollovers:
// approved years with autoRollover enabled whose autoRolloverDate has passed.
type RolloverWorker struct {
	yearRepo domain.FinancialYearRepository
	rollover *RolloverService
	logger   zerolog.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// RolloverWorkerConfig holds configuration for the rollover worker
type RolloverWorkerConfig struct {
	Interval time.Duration
}

// DefaultRolloverWorkerConfig returns sensible defaults
func DefaultRolloverWorkerConfig() RolloverWorkerConfig {
	return RolloverWorkerConfig{Interval: 1 * time.Hour}
}

// NewRolloverWorker creates a new rollover worker
func NewRolloverWorker(yearRepo domain.FinancialYearRepository, rollover *RolloverService, logger zerolog.Logger, config RolloverWorkerConfig) *RolloverWorker {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Hour
	}
	return &RolloverWorker{
		yearRepo: yearRepo,
		rollover: rollover,
		logger:   logger.With().Str("component", "rollover_worker").Logger(),
		interval: config.Interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep
func (w *RolloverWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting rollover worker")
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *RolloverWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping rollover worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Rollover worker stopped")
}

func (w *RolloverWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setStopped()
			return
		case <-w.stopCh:
			w.setStopped()
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *RolloverWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// sweep applies every due auto-rollover. Each year is independent; one
// failure does not stop the rest.
func (w *RolloverWorker) sweep() {
	now := time.Now().UTC()
	due, err := w.yearRepo.GetDueAutoRollover(now)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list due auto-rollovers")
		return
	}
	if len(due) == 0 {
		return
	}

	for _, year := range due {
		result, err := w.rollover.Apply(year.WorkspaceID, year.ID, RolloverInput{
			Percentage: year.Rollover.RolloverPercentage,
			// Applied: the schedule is consumed, not re-armed
			AutoRollover:     false,
			AutoRolloverDate: nil,
		})
		if err != nil {
			// Nothing left to roll means the schedule is stale; disarm it
			if errors.Is(err, domain.ErrNoApprovedDistributions) {
				w.disarm(year)
				continue
			}
			w.logger.Error().Err(err).
				Int32("financial_year_id", year.ID).
				Msg("Scheduled rollover failed")
			continue
		}
		w.logger.Info().
			Int32("financial_year_id", year.ID).
			Int("rolled", result.RolledCount).
			Str("total_rolled", result.TotalRolled.String()).
			Msg("Scheduled rollover applied")
	}
}

func (w *RolloverWorker) disarm(year *domain.FinancialYear) {
	settings := year.Rollover
	settings.AutoRollover = false
	settings.AutoRolloverDate = nil
	if err := w.yearRepo.UpdateRolloverSettings(year.WorkspaceID, year.ID, settings); err != nil {
		w.logger.Error().Err(err).Int32("financial_year_id", year.ID).Msg("Failed to disarm auto-rollover")
	}
}
