package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

var sweptRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "circlepay",
	Subsystem: "sweeper",
	Name:      "rows_total",
	Help:      "Withdrawal rows changed by background passes.",
}, []string{"pass"})

type Ledger interface {
	SweepStale(ctx context.Context, threshold time.Duration) (int, error)
	RequeueExpiredMatches(ctx context.Context, now time.Time) (int, error)
}

type SettingsSource interface {
	Get(ctx context.Context) models.Settings
}

type Result struct {
	Stale    int
	Requeued int
}

// Sweeper periodically marks old queued withdrawals stale and returns
// abandoned claims to the queue.
type Sweeper struct {
	ledger   Ledger
	settings SettingsSource
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewSweeper(ledger Ledger, settings SettingsSource, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		settings: settings,
		interval: interval,
		log:      log.With().Str("component", "sweeper").Logger(),
		now:      time.Now,
	}
}

// RunOnce runs both passes. A failure in one pass does not skip the other.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	var errs []error

	window := s.settings.Get(ctx).StaleWindow()
	if window > 0 {
		n, err := s.ledger.SweepStale(ctx, window)
		if err != nil {
			errs = append(errs, fmt.Errorf("stale sweep: %w", err))
		}
		res.Stale = n
		sweptRows.WithLabelValues("stale").Add(float64(n))
	}

	n, err := s.ledger.RequeueExpiredMatches(ctx, s.now())
	if err != nil {
		errs = append(errs, fmt.Errorf("claim requeue: %w", err))
	}
	res.Requeued = n
	sweptRows.WithLabelValues("requeue").Add(float64(n))

	return res, errors.Join(errs...)
}

func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("Starting withdrawal sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Withdrawal sweeper stopped")
			return
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("Sweep failed, retrying next tick")
			}
			if res.Stale > 0 || res.Requeued > 0 {
				s.log.Info().Int("stale", res.Stale).Int("requeued", res.Requeued).Msg("Sweep finished")
			}
		}
	}
}
