// Package worker provides a generic worker loop abstraction for background
// processing: poll-based loops with context cancellation and error recovery.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ProcessFunc is called each iteration to process work items.
// It should return quickly if no work is available.
type ProcessFunc func(ctx context.Context) error

// Config configures the worker loop behavior.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// PollInterval is the time between process iterations.
	PollInterval time.Duration

	// Process is called each iteration to do the main work.
	Process ProcessFunc

	// OnError is called when Process returns an error.
	// Return true to continue, false to exit the loop.
	OnError func(err error) bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

const logFieldWorker = "worker"

// Loop runs a worker loop with the given configuration.
// It handles context cancellation and error recovery. Returns ctx.Err() when
// the context is canceled, or the first fatal error.
func Loop(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting worker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := cfg.Process(ctx); err != nil {
			if cfg.OnError != nil && !cfg.OnError(err) {
				return fmt.Errorf("worker %s: %w", cfg.Name, err)
			}

			logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("worker iteration failed")
		}

		if err := Wait(ctx, cfg.PollInterval); err != nil {
			return err
		}
	}
}

// Wait sleeps for the given duration or until the context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
