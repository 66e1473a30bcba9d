package sched

import (
	"context"
	"time"

	"clicks-promotions/internal/domain/ports/adapter"
	"clicks-promotions/internal/infra/logging"

	"github.com/rs/zerolog"
)

const sweepLockKey = "lock:promotions:sweep"

// ExpirySweeper is the part of the promotion use case the worker drives.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) int
}

// ExpiryWorker deactivates expired promotions once at start and then on
// every tick. With a locker only one instance sweeps per tick.
type ExpiryWorker struct {
	interval time.Duration
	sweeper  ExpirySweeper
	locker   adapter.Locker
	log      *zerolog.Logger
}

// NewExpiryWorker builds the worker; locker may be nil.
func NewExpiryWorker(interval time.Duration, sweeper ExpirySweeper, locker adapter.Locker, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		sweeper:  sweeper,
		locker:   locker,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ExpiryWorker) runOnce(ctx context.Context) {
	defer logging.TraceDuration(w.log, "sweep")()

	runCtx, cancel := context.WithTimeout(ctx, w.interval/2+time.Second)
	defer cancel()

	if w.locker != nil {
		token, err := w.locker.TryLock(runCtx, sweepLockKey, w.interval/2+time.Second)
		if err != nil {
			w.log.Debug().Err(err).Msg("sweep skipped, lock not acquired")
			return
		}
		defer func() {
			if err := w.locker.Unlock(context.Background(), sweepLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("sweep lock release failed")
			}
		}()
	}

	if n := w.sweeper.SweepExpired(runCtx); n > 0 {
		w.log.Info().Int("count", n).Msg("expired promotions swept")
	}
}
