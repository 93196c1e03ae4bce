package sheets

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/models"
)

// Backend is a raw tabular store without throttling or retries.
type Backend interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) error
	BatchUpdate(ctx context.Context, updates []CellUpdate) error
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
}

type Options struct {
	MinInterval time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

func DefaultOptions() Options {
	return Options{
		MinInterval: constants.DefaultStoreMinInterval,
		MaxAttempts: constants.DefaultStoreMaxAttempts,
		BaseDelay:   constants.DefaultStoreBaseDelay,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a backend error that retrying cannot fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type Client struct {
	backend     Backend
	throttle    *Throttle
	maxAttempts int
	baseDelay   time.Duration
	jitter      bool
	sleep       func(context.Context, time.Duration) error
	log         zerolog.Logger
}

func NewClient(backend Backend, opts Options, log zerolog.Logger) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Client{
		backend:     backend,
		throttle:    NewThrottle(opts.MinInterval),
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		jitter:      opts.Jitter,
		sleep:       sleepContext,
		log:         log.With().Str("component", "sheets").Logger(),
	}
}

func (c *Client) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	var rows [][]string
	err := c.call(ctx, "read", rng, func(ctx context.Context) error {
		var err error
		rows, err = c.backend.Get(ctx, rng)
		return err
	})
	return rows, err
}

func (c *Client) AppendRows(ctx context.Context, rng string, rows [][]string) error {
	return c.call(ctx, "append", rng, func(ctx context.Context) error {
		return c.backend.Append(ctx, rng, rows)
	})
}

func (c *Client) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return c.call(ctx, "batch_update", updates[0].Range, func(ctx context.Context) error {
		return c.backend.BatchUpdate(ctx, updates)
	})
}

// EnsureSheetAndHeaders creates the sheet when missing and writes headers only
// into an empty first row.
func (c *Client) EnsureSheetAndHeaders(ctx context.Context, sheet string, headers []string) error {
	var titles []string
	err := c.call(ctx, "list_sheets", sheet, func(ctx context.Context) error {
		var err error
		titles, err = c.backend.SheetTitles(ctx)
		return err
	})
	if err != nil {
		return err
	}

	exists := false
	for _, t := range titles {
		if strings.EqualFold(t, sheet) {
			exists = true
			break
		}
	}
	if !exists {
		if err := c.call(ctx, "add_sheet", sheet, func(ctx context.Context) error {
			return c.backend.AddSheet(ctx, sheet)
		}); err != nil {
			return err
		}
		c.log.Info().Str("sheet", sheet).Msg("Created sheet")
	}

	if len(headers) == 0 {
		return nil
	}
	first, err := c.ReadRange(ctx, RowSpan(sheet, 1, 1, len(headers)))
	if err != nil {
		return err
	}
	if len(first) > 0 && !isBlank(first[0]) {
		return nil
	}
	return c.BatchUpdate(ctx, []CellUpdate{{
		Range:  RowSpan(sheet, 1, 1, len(headers)),
		Values: [][]string{headers},
	}})
}

func (c *Client) call(ctx context.Context, op, target string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				storeCalls.WithLabelValues(op, "cancelled").Inc()
				return fmt.Errorf("%s %s cancelled: %w", op, target, err)
			}
		}
		if err := c.throttle.Wait(ctx); err != nil {
			storeCalls.WithLabelValues(op, "cancelled").Inc()
			return fmt.Errorf("%s %s cancelled: %w", op, target, err)
		}

		err := fn(ctx)
		if err == nil {
			storeCalls.WithLabelValues(op, "ok").Inc()
			return nil
		}
		lastErr = err

		if errors.Is(err, models.ErrCredentialFailure) {
			storeCalls.WithLabelValues(op, "credential").Inc()
			c.log.Error().Err(err).Str("op", op).Str("range", target).Msg("Store rejected credentials")
			return err
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			storeCalls.WithLabelValues(op, "error").Inc()
			return fmt.Errorf("failed to %s %s: %w", op, target, perm.err)
		}
		if ctx.Err() != nil {
			storeCalls.WithLabelValues(op, "cancelled").Inc()
			return fmt.Errorf("%s %s cancelled: %w", op, target, ctx.Err())
		}
		if attempt < c.maxAttempts {
			storeRetries.WithLabelValues(op).Inc()
			c.log.Warn().Err(err).Str("op", op).Str("range", target).Int("attempt", attempt).Msg("Store call failed, retrying")
		}
	}
	storeCalls.WithLabelValues(op, "error").Inc()
	return fmt.Errorf("%s %s failed after %d attempts: %w: %w", op, target, c.maxAttempts, models.ErrTransientIO, lastErr)
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<(attempt-2))
	if c.jitter && delay > 0 {
		delay += time.Duration(rand.Int64N(int64(delay)/2 + 1))
	}
	return delay
}
